package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
	"github.com/BuzzLyutic/project-tracker-api/pkg/respond"
)

// statusFor переводит вид ошибки в HTTP статус.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput, apperr.InvalidTransition:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if kind, ok := apperr.KindOf(err); ok {
		respond.Fail(w, r, statusFor(kind), string(kind), apperr.Message(err))
		return
	}

	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Fail(w, r, http.StatusNotFound, string(apperr.NotFound), "Resource not found.")
	case errors.Is(err, repo.ErrorConflict):
		respond.Fail(w, r, http.StatusConflict, string(apperr.Conflict), "Resource was modified concurrently.")
	default:
		logger.Error("internal error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		respond.Error(w, r, http.StatusInternalServerError, "Internal server error.")
	}
}
