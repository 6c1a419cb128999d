package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/aamersadiq/cart-pricing/internal/domain"
)

type actorKey struct{}

const sessionCookie = "cart_session"

// ActorMiddleware resolves the acting identity for the request: X-User-ID for
// authenticated traffic, the session cookie for anonymous traffic. A missing
// cookie is minted on the spot so every visitor can hold a cart.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domain.Actor{
			UserID: r.Header.Get("X-User-ID"),
			Admin:  r.Header.Get("X-Admin") == "true",
		}

		if actor.UserID == "" {
			if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
				actor.SessionID = c.Value
			} else {
				actor.SessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookie,
					Value:    actor.SessionID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
		}

		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor placed by ActorMiddleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
