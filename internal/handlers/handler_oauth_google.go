package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/internal/apperrors"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

const oauthStateCookie = "oauth_state"

// GoogleOAuthHandler signs existing users in with their Google account.
// Google sign-in never creates accounts: the verified email must belong to an
// active, approved user.
type GoogleOAuthHandler struct {
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade
	userService        portssvc.UserSvcFacade
	tokenService       portssvc.TokenSvcFacade
	frontendBaseURL    string
	secureCookies      bool
}

// NewGoogleOAuthHandler creates a new instance of GoogleOAuthHandler.
func NewGoogleOAuthHandler(
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade,
	userService portssvc.UserSvcFacade,
	tokenService portssvc.TokenSvcFacade,
	frontendBaseURL string,
	secureCookies bool,
) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		googleOAuthService: googleOAuthService,
		userService:        userService,
		tokenService:       tokenService,
		frontendBaseURL:    strings.TrimRight(frontendBaseURL, "/"),
		secureCookies:      secureCookies,
	}
}

// ExchangeCodeRequest defines the expected JSON body for the /google/exchange-code endpoint.
type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ExchangeCodeResponse defines the successful response for the /google/exchange-code endpoint.
type ExchangeCodeResponse struct {
	Token string `json:"token"`
}

// LoginGoogle godoc
// @Summary Start Google sign-in
// @Description Redirects the browser to Google with a CSRF state cookie.
// @Tags oauth
// @Success 307 "Redirect to Google"
// @Failure 500 {object} ErrorResponse
// @Router /auth/google/login [get]
func (h *GoogleOAuthHandler) LoginGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	state, err := h.googleOAuthService.GenerateStateString(ctx)
	if err != nil {
		logger.Error("Failed to generate OAuth state", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/v1/auth/google", "", h.secureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, h.googleOAuthService.GetGoogleLoginURL(ctx, state))
}

// CallbackGoogle godoc
// @Summary Google sign-in callback
// @Description Checks the state, exchanges the code and redirects to the frontend with an access token.
// @Tags oauth
// @Param state query string true "CSRF state"
// @Param code query string true "Authorization code"
// @Success 307 "Redirect to the frontend"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/google/callback [get]
func (h *GoogleOAuthHandler) CallbackGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || c.Query("state") != expected {
		logger.Warn("OAuth state mismatch")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid OAuth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/api/v1/auth/google", "", h.secureCookies, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Authorization code is required"})
		return
	}

	token, err := h.signIn(ctx, logger, code)
	if err != nil {
		h.redirectWithError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.frontendBaseURL+"/auth/callback#token="+url.QueryEscape(token))
}

// ExchangeCodeGoogle handles the POST request from the frontend containing the authorization code from Google.
// @Summary Exchange authorization code for access token
// @Description Exchange a Google authorization code for an application access token
// @Tags oauth
// @Accept  json
// @Produce  json
// @Param   code body ExchangeCodeRequest true "Authorization code"
// @Success 200 {object} ExchangeCodeResponse
// @Failure 400 {object} ValidationErrorResponse "Invalid authorization code"
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "No active account for this email"
// @Failure 502 {object} ErrorResponse "Google unreachable"
// @Router /auth/google/exchange-code [post]
func (h *GoogleOAuthHandler) ExchangeCodeGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	var req ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, logger, err)
		return
	}

	token, err := h.signIn(ctx, logger, req.Code)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
			return
		}
		handleServiceError(c, logger, err, "Failed to sign in with Google")
		return
	}
	c.JSON(http.StatusOK, ExchangeCodeResponse{Token: token})
}

// signIn exchanges code, validates Google's ID token and issues an access token
// for the matching user.
func (h *GoogleOAuthHandler) signIn(ctx context.Context, logger *slog.Logger, code string) (string, error) {
	oauth2Token, err := h.googleOAuthService.ExchangeCodeForToken(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		lower := strings.ToLower(err.Error())
		if strings.Contains(lower, "invalid_grant") || strings.Contains(lower, "bad request") {
			return "", apperrors.NewAppError(http.StatusBadRequest, "Invalid or expired authorization code", err)
		}
		return "", apperrors.NewAppError(http.StatusBadGateway, "Failed to communicate with Google", err)
	}

	idTokenString, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idTokenString == "" {
		return "", apperrors.NewAppError(http.StatusBadGateway, "Google response carried no ID token", nil)
	}

	payload, err := h.googleOAuthService.ValidateGoogleIDToken(ctx, idTokenString)
	if err != nil {
		logger.Warn("Google ID token validation failed", slog.String("error", err.Error()))
		return "", apperrors.ErrUnauthorized
	}

	email, _ := payload.Claims["email"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		logger.Warn("Google account email missing or unverified", slog.String("google_user_id", payload.Subject))
		return "", apperrors.ErrUnauthorized
	}

	user, err := h.userService.FindSignInUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NewForbiddenError("no active account for this Google email")
		}
		return "", err
	}

	token, _, err := h.tokenService.GenerateAccessToken(ctx, user)
	if err != nil {
		return "", err
	}
	logger.Info("User signed in with Google", slog.String("user_id", user.UserID))
	return token, nil
}

func (h *GoogleOAuthHandler) redirectWithError(c *gin.Context, err error) {
	reason := "server_error"
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr) && appErr.Code == http.StatusBadRequest:
		reason = "invalid_code"
	case errors.Is(err, apperrors.ErrUnauthorized):
		reason = "invalid_token"
	case errors.Is(err, apperrors.ErrForbidden):
		reason = "no_account"
	default:
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Google sign-in failed", slog.String("error", err.Error()))
	}
	c.Redirect(http.StatusTemporaryRedirect, h.frontendBaseURL+"/login?error="+reason)
}

