package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/identity"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

const (
	CartSessionCookie = "bloom_cart_session"
	CartSessionHeader = "X-Cart-Session"

	cartSessionMaxAge = 30 * 24 * time.Hour
)

type sessionKey struct{}

// RequestIDMiddleware echoes the request id set by chi's RequestID and stores
// a request-scoped logger in the context.
func RequestIDMiddleware(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = r.Header.Get(middleware.RequestIDHeader)
			}
			if requestID != "" {
				w.Header().Set(middleware.RequestIDHeader, requestID)
			}

			l := base.With(zap.String("request_id", requestID))
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l)))
		})
	}
}

// AccessLog writes one line per request after the handler returns.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger.FromContext(r.Context()).Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// AuthMiddleware attaches the caller identity when a bearer token is present.
// Requests without an Authorization header pass through anonymously; a
// malformed or invalid token is rejected.
func AuthMiddleware(auth *identity.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok, err := identity.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if err == nil {
				var id identity.Identity
				id, err = auth.Verify(token)
				if err == nil {
					ctx := identity.WithIdentity(r.Context(), id)
					ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", id.UserID)))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			logger.FromContext(r.Context()).Info("rejected bearer token", zap.Error(err))
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
		})
	}
}

// CartSessionMiddleware resolves the cart session from the cookie or header,
// issuing a new one when neither is present or usable.
func CartSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			session = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CartSessionCookie,
				Value:    session,
				Path:     "/",
				MaxAge:   int(cartSessionMaxAge / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(CartSessionHeader, session)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

var errNoSession = errors.New("no cart session")

func sessionFromRequest(r *http.Request) (string, error) {
	raw := r.Header.Get(CartSessionHeader)
	if raw == "" {
		if c, err := r.Cookie(CartSessionCookie); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return "", errNoSession
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func cartSession(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}
