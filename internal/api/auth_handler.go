package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

type sessionResponse struct {
	Message string `json:"message"`
	*model.Session
}

func (h *Handler) Register(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.Registration
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	l.Info("registering user", zap.String("username", req.Username))

	session, err := h.auth.Register(e.Request().Context(), &req)
	if err != nil {
		l.Error("failed to register user", zap.String("username", req.Username), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusCreated, sessionResponse{Message: "registered", Session: session})
}

func (h *Handler) Login(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	session, err := h.auth.Login(e.Request().Context(), req.Username, req.Password)
	if err != nil {
		l.Info("login rejected", zap.String("username", req.Username), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, sessionResponse{Message: "logged in", Session: session})
}

func (h *Handler) RefreshToken(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	token, err := h.auth.RefreshToken(e.Request().Context(), req.RefreshToken)
	if err != nil {
		l.Info("refresh rejected", zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}{Message: "token refreshed", Token: token})
}

func (h *Handler) Logout(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	if req.RefreshToken != "" {
		if err := h.auth.Logout(e.Request().Context(), req.RefreshToken); err != nil {
			l.Error("failed to logout", zap.Any("error", err))
			return transportError(e, err)
		}
	}

	return e.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handler) ChangePassword(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	if err := h.auth.ChangePassword(e.Request().Context(), actor(e).ID, req.CurrentPassword, req.NewPassword); err != nil {
		l.Info("failed to change password", zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

func (h *Handler) ForgotPassword(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Email string `json:"email" validate:"required"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	if err := h.auth.ForgotPassword(e.Request().Context(), req.Email); err != nil {
		l.Error("failed to process password reset request", zap.Any("error", err))
	}

	return e.JSON(http.StatusOK, messageResponse{Message: "if the email exists, a reset link has been sent"})
}

func (h *Handler) ResetPassword(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	if err := h.auth.ResetPassword(e.Request().Context(), req.Token, req.NewPassword); err != nil {
		l.Info("failed to reset password", zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, messageResponse{Message: "password reset"})
}

func (h *Handler) Me(e echo.Context) error {
	user, err := h.auth.Me(e.Request().Context(), actor(e).ID)
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		FullName   string `json:"fullName"`
		Avatar     string `json:"avatar"`
		Department string `json:"department"`
		Position   string `json:"position"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	user, err := h.auth.UpdateProfile(e.Request().Context(), actor(e).ID, &model.ProfilePatch{
		Name:       req.FullName,
		Avatar:     req.Avatar,
		Department: req.Department,
		Position:   req.Position,
	})
	if err != nil {
		l.Error("failed to update profile", zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, struct {
		Message string        `json:"message"`
		Profile model.Profile `json:"profile"`
	}{Message: "profile updated", Profile: user.Profile})
}

func (h *Handler) ListUsers(e echo.Context) error {
	users, err := h.user.ListUsers(e.Request().Context())
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, users)
}

func (h *Handler) PatchUser(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.UserPatch
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	userID := e.Param("id")
	l.Info("patching user", zap.String("target_user_id", userID))

	user, err := h.user.PatchUser(e.Request().Context(), userID, &req)
	if err != nil {
		l.Error("failed to patch user", zap.String("target_user_id", userID), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, user)
}
