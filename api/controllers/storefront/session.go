package storefront

import (
	"context"
	"net/http"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// Reconciler migrates a guest cart into a session cart.
type Reconciler interface {
	Run(ctx context.Context, anonymous cart.Store, session cart.SessionTarget, loginID string) (cart.Report, error)
}

// SessionLogin serves POST /api/v1/session/login. The caller has just signed
// in; the guest cart named by the request is moved into the user's cart and
// the per-line report is returned. Lines the backend rejected are listed with
// their error code rather than failing the request.
func SessionLogin(carts CartResolver, reconciler Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || reconciler == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		identity := IdentityFrom(r.Context())
		if !identity.Authenticated() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		if identity.GuestID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest cart id is required"))
			return
		}

		report, err := reconciler.Run(r.Context(),
			carts.Anonymous(identity.GuestID),
			carts.Session(identity),
			identity.LoginID,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
