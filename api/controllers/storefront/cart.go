package storefront

import (
	"context"
	"net/http"

	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// CartResolver hands out the cart store for a request identity.
type CartResolver interface {
	For(identity cart.Identity) (cart.Store, error)
	Anonymous(guestID string) *cart.AnonymousStore
	Session(identity cart.Identity) *cart.SessionStore
}

// IdentityFrom reads the guest id and the optional session claims set by the middleware chain.
func IdentityFrom(ctx context.Context) cart.Identity {
	return cart.Identity{
		GuestID: middleware.GuestIDFromContext(ctx),
		UserID:  middleware.UserIDFromContext(ctx),
		Token:   middleware.TokenFromContext(ctx),
		LoginID: middleware.LoginIDFromContext(ctx),
	}
}

func resolveStore(w http.ResponseWriter, r *http.Request, carts CartResolver, logg *logger.Logger) (cart.Store, bool) {
	if carts == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return nil, false
	}
	store, err := carts.For(IdentityFrom(r.Context()))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return store, true
}

// CartGet serves GET /api/v1/cart.
func CartGet(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, carts, logg)
		if !ok {
			return
		}
		lines, err := store.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// CartAddItem serves POST /api/v1/cart/items.
func CartAddItem(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, carts, logg)
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

		line, err := store.Add(r.Context(), payload.BookID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

// CartUpdateItem serves PUT /api/v1/cart/items/{lineId}.
func CartUpdateItem(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, carts, logg)
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

		line, err := store.Update(r.Context(), lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// CartRemoveItem serves DELETE /api/v1/cart/items/{lineId}.
func CartRemoveItem(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, carts, logg)
		if !ok {
			return
		}
		lineID, err := validators.ParseStringParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Remove(r.Context(), lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartClear serves DELETE /api/v1/cart.
func CartClear(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, carts, logg)
		if !ok {
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartRefresh serves POST /api/v1/cart/refresh. Guest carts get fresh stock
// snapshots; a session cart is simply re-read from the backend, which always
// reports live stock.
func CartRefresh(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		identity := IdentityFrom(r.Context())

		var (
			lines []cart.Line
			err   error
		)
		if identity.Authenticated() {
			session := carts.Session(identity)
			if err = session.Invalidate(r.Context()); err == nil {
				lines, err = session.List(r.Context())
			}
		} else {
			if identity.GuestID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest cart id is required"))
				return
			}
			lines, err = carts.Anonymous(identity.GuestID).RefreshStock(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}
