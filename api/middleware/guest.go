package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

const (
	GuestHeader = "X-Guest-Cart"
	GuestCookie = "guest_cart"
)

// Guest resolves the guest cart id from the X-Guest-Cart header or the
// guest_cart cookie, minting one when neither is present. The id is echoed
// back on the response header and refreshed in the cookie.
func Guest(cookieTTL time.Duration, secure bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guestID := strings.TrimSpace(r.Header.Get(GuestHeader))
			if guestID == "" {
				if c, err := r.Cookie(GuestCookie); err == nil {
					guestID = strings.TrimSpace(c.Value)
				}
			}
			if _, err := uuid.Parse(guestID); err != nil {
				guestID = uuid.NewString()
			}

			w.Header().Set(GuestHeader, guestID)
			http.SetCookie(w, &http.Cookie{
				Name:     GuestCookie,
				Value:    guestID,
				Path:     "/",
				MaxAge:   int(cookieTTL.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithGuestID(r.Context(), guestID)
			if logg != nil {
				ctx = logg.WithGuestID(ctx, guestID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
