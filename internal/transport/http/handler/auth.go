package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"authgate/internal/app"
	"authgate/internal/logging"
	"authgate/internal/model"
	"authgate/internal/transport/http/middleware"
	"authgate/internal/transport/http/response"
)

const (
	MessageInvalidPayload = "Invalid request payload"

	outcomeSuccess = "success"
	outcomeError   = "error"
)

type AuthService interface {
	Register(ctx context.Context, input app.RegisterInput) (*app.AuthResult, error)
	Login(ctx context.Context, input app.LoginInput) (*app.AuthResult, error)
	GetProfile(ctx context.Context, userID uint) (*model.UserView, error)
}

// EventPublisher delivers auth events to the audit queue.
type EventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

type OutcomeRecorder interface {
	ObserveAuth(operation, outcome string)
}

type AuthHandler struct {
	authService AuthService
	events      EventPublisher
	outcomes    OutcomeRecorder
	logger      *slog.Logger
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminTestData struct {
	Message string `json:"message"`
	User    string `json:"user"`
}

// NewAuthHandler accepts nil events and outcomes; both are optional side channels.
func NewAuthHandler(authService AuthService, events EventPublisher, outcomes OutcomeRecorder, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AuthHandler{
		authService: authService,
		events:      events,
		outcomes:    outcomes,
		logger:      logger,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	h.observe("register", err)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.publish(c, model.AuthEventRegistered, result.User)
	response.OK(c, http.StatusCreated, "User registered successfully", result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	h.observe("login", err)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.publish(c, model.AuthEventLogin, result.User)
	response.OK(c, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.Fail(c, app.ErrInvalidToken)
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Profile retrieved successfully", user)
}

func (h *AuthHandler) AdminTest(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.Fail(c, app.ErrAdminRequired)
		return
	}
	response.OK(c, http.StatusOK, "Admin access granted", adminTestData{
		Message: "This is an admin-only endpoint",
		User:    claims.Username,
	})
}

func (h *AuthHandler) observe(operation string, err error) {
	if h.outcomes == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
		if appErr, ok := app.AsError(err); ok {
			outcome = appErr.Kind.String()
		}
	}
	h.outcomes.ObserveAuth(operation, outcome)
}

// publish never fails the request; a lost audit event is only logged.
func (h *AuthHandler) publish(c *gin.Context, eventType string, user model.UserView) {
	if h.events == nil {
		return
	}
	event := model.AuthEvent{
		Type:      eventType,
		UserID:    user.ID,
		Username:  user.Username,
		ClientIP:  c.ClientIP(),
		RequestID: middleware.RequestIDFromContext(c),
	}
	if err := h.events.Publish(c.Request.Context(), event); err != nil {
		logging.LogError(h.logger, "publish auth event failed", err, "type", eventType, "user_id", user.ID)
	}
}

// bindJSON decodes the body into dst. An empty body decodes to the zero value so that
// validation can name the missing fields.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil {
		return true
	}
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, middleware.MessageBodyTooLarge)
		return false
	}
	response.Error(c, http.StatusBadRequest, MessageInvalidPayload)
	return false
}
