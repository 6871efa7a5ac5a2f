package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Actor carries the identity and session metadata of the person behind a
// request, for the audit trail. Authentication itself lives in the fronting
// proxy; OpsDesk trusts the identity headers it forwards.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
	SessionID string
}

// Header and cookie names the fronting proxy uses to convey identity.
const (
	userIDHeader    = "X-User-ID"
	sessionIDHeader = "X-Session-ID"
	sessionCookie   = "opsdesk_session"
)

// actorContextKey is the Echo context key holding the captured Actor.
const actorContextKey = "opsdesk.actor"

// ActorContext returns middleware that captures who is making the request:
// user id and session id from the proxy headers, client IP via the trusted
// proxy config, and the user agent. When no session id is supplied, one is
// generated so mutations within the same request still correlate.
func ActorContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			sessionID := req.Header.Get(sessionIDHeader)
			if sessionID == "" {
				if cookie, err := c.Cookie(sessionCookie); err == nil {
					sessionID = cookie.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			c.Set(actorContextKey, Actor{
				UserID:    req.Header.Get(userIDHeader),
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
				SessionID: sessionID,
			})

			return next(c)
		}
	}
}

// ActorFrom returns the Actor captured for this request, or a zero Actor
// when the middleware did not run.
func ActorFrom(c echo.Context) Actor {
	if actor, ok := c.Get(actorContextKey).(Actor); ok {
		return actor
	}
	return Actor{}
}
