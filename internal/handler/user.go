package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/service"
	"github.com/BuzzLyutic/project-tracker-api/pkg/respond"
)

type UserHandler struct {
	service *service.UserService
	logger  *zap.Logger
}

func NewUserHandler(srv *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: srv, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, users)
}
