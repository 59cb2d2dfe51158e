package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/almahra/cart-engine/pkg/auth"
)

type contextKey string

// SessionKey is the context key holding the request's cart session
const SessionKey contextKey = "cart_session"

// sessionHeader carries a guest session id across requests
const sessionHeader = "X-Session-ID"

// sessionMiddleware resolves the request's cart session. A valid bearer
// token yields the user's authenticated session, folding the remote cart on
// first sight and adopting any guest cart named by X-Session-ID; otherwise
// the request runs as a guest keyed by X-Session-ID, which is issued when
// absent.
func (h *CartHandler) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				h.respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := auth.ValidateToken(parts[1])
			if err != nil {
				h.respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			sess := h.sessions.Get(ctx, fmt.Sprintf("user-%d", claims.UserID))
			sess.Authenticate(ctx, parts[1])

			// a guest cart riding along on login folds into the user's cart
			if guestID := r.Header.Get(sessionHeader); guestID != "" {
				sess.AdoptGuest(ctx, h.sessions.Lookup("guest-"+guestID))
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, SessionKey, sess)))
			return
		}

		sessionID := r.Header.Get(sessionHeader)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		w.Header().Set(sessionHeader, sessionID)

		sess := h.sessions.Get(ctx, "guest-"+sessionID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, SessionKey, sess)))
	}
}

// sessionFromContext returns the resolved session for the request
func sessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*Session)
	return sess, ok
}
