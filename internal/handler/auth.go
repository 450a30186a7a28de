package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/service"
	"github.com/BuzzLyutic/project-tracker-api/pkg/respond"
)

type AuthHandler struct {
	service *service.AuthService
	schemas *schemaSet
	logger  *zap.Logger
}

func NewAuthHandler(srv *service.AuthService, schemas *schemaSet, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: srv, schemas: schemas, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, h.schemas.login, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}
