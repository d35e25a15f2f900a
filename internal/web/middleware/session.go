package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fileconverter/internal/core"
)

// Session assigns every browser a random session ID cookie and scopes the
// request context to it, so uploads are visible only to the browser that
// sent them. The client IP is attached for history entries.
func Session(cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if parsed, perr := uuid.Parse(c.Value); perr == nil {
					id = parsed.String()
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := core.ContextWithSession(r.Context(), id)
			ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
