package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
)

const (
	msgNoToken     = "No token provided or token is malformed."
	msgBadToken    = "Failed to authenticate token."
	msgAdminOnly   = "Access denied. Admin role required."
	msgNoRequester = "Authentication required."
)

type ctxKey int

const requesterKey ctxKey = iota

// TokenVerifier проверяет bearer токен и возвращает личность запрашивающего.
type TokenVerifier interface {
	Authenticate(token string) (model.Requester, error)
}

func WithRequester(ctx context.Context, requester model.Requester) context.Context {
	return context.WithValue(ctx, requesterKey, requester)
}

func RequesterFrom(ctx context.Context) (model.Requester, bool) {
	requester, ok := ctx.Value(requesterKey).(model.Requester)
	return requester, ok
}

// requesterOf достает личность, положенную Authenticate.
func requesterOf(r *http.Request) (model.Requester, error) {
	requester, ok := RequesterFrom(r.Context())
	if !ok {
		return model.Requester{}, apperr.New(apperr.Unauthorized, msgNoRequester)
	}
	return requester, nil
}

// Authenticate requires an "Authorization: Bearer <token>" header and puts
// the verified requester into the request context.
func Authenticate(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				handleErrors(w, r, logger, apperr.New(apperr.Unauthorized, msgNoToken))
				return
			}

			requester, err := verifier.Authenticate(token)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				handleErrors(w, r, logger, apperr.New(apperr.Unauthorized, msgBadToken))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester, err := requesterOf(r)
			if err != nil {
				handleErrors(w, r, logger, err)
				return
			}
			if !requester.IsAdmin() {
				handleErrors(w, r, logger, apperr.New(apperr.Forbidden, msgAdminOnly))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger пишет одну строку zap на каждый запрос.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
