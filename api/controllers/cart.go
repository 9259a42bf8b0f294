package controllers

import (
	"net/http"

	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/sessioncart"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// CartList serves GET /cart for the authenticated user.
func CartList(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCartUser(w, r, svc, logg)
		if !ok {
			return
		}
		lines, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// CartAdd serves POST /cart/add. A missing quantity means one copy.
func CartAdd(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCartUser(w, r, svc, logg)
		if !ok {
			return
		}

		var payload types.AddCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == 0 {
			payload.Quantity = 1
		}

		line, err := svc.Add(r.Context(), userID, payload.BookID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

// CartUpdate serves PUT /cart/{lineId}.
func CartUpdate(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCartUser(w, r, svc, logg)
		if !ok {
			return
		}
		lineID, err := validators.ParseStringParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload types.UpdateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.Update(r.Context(), userID, lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// CartRemove serves DELETE /cart/{lineId}.
func CartRemove(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCartUser(w, r, svc, logg)
		if !ok {
			return
		}
		lineID, err := validators.ParseStringParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), userID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartClear serves DELETE /cart.
func CartClear(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCartUser(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func requireCartUser(w http.ResponseWriter, r *http.Request, svc sessioncart.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return userID, true
}
