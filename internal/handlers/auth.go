package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"blockon/api/internal/middleware"
	"blockon/api/internal/models"
	"blockon/api/internal/service"
)

type sendAuthEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h HandlerSet) SendAuthEmail(c *gin.Context) {
	var req sendAuthEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"result": false, "info": "email is required"})
		return
	}

	ctx, cancel := h.callContext(c.Request.Context())
	defer cancel()

	if err := h.verification.RequestChallenge(ctx, req.Email); err != nil {
		status, message := statusFor(err)
		if status >= http.StatusInternalServerError || errors.Is(err, service.ErrDispatchFailed) {
			h.log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("send auth email failed")
		}
		_ = c.Error(err)
		c.JSON(status, gin.H{"result": false, "info": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true})
}

// AuthEmail is opened from the emailed link, so it answers with a page that
// shows the outcome and closes the tab.
func (h HandlerSet) AuthEmail(c *gin.Context) {
	ctx, cancel := h.callContext(c.Request.Context())
	defer cancel()

	outcome, err := h.verification.Confirm(ctx, c.Query("email"), c.Query("token"))
	switch {
	case err == nil:
		alertPage(c, http.StatusOK, string(outcome))
	case errors.Is(err, service.ErrInvalidToken):
		alertPage(c, http.StatusOK, service.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrEmailAuthNotFound):
		alertPage(c, http.StatusNotFound, "not found")
	default:
		h.log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("confirm email failed")
		_ = c.Error(err)
		alertPage(c, http.StatusInternalServerError, internalMessage)
	}
}

func alertPage(c *gin.Context, status int, message string) {
	body := fmt.Sprintf("<script>alert('%s');close();</script>", template.JSEscapeString(message))
	c.Data(status, "text/html; charset=utf-8", []byte(body))
}

type registerRequest struct {
	EthAddress      string `json:"ethAddress"`
	Email           string `json:"email"`
	Username        string `json:"username" binding:"required"`
	ProfileFilename string `json:"profileFilename"`
	Password        string `json:"password"`
	IsJunggae       bool   `json:"isJunggae"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// An aborted request must not leave a half-finished registration behind,
	// so only the timeout bounds the store call.
	ctx, cancel := h.callContext(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	result, err := h.auth.Register(ctx, service.RegisterInput{
		Identity:        h.identityValue(req.EthAddress, req.Email),
		Email:           req.Email,
		Username:        req.Username,
		ProfileFilename: req.ProfileFilename,
		Password:        req.Password,
		IsJunggae:       req.IsJunggae,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "registered successfully",
		"admin":   result.Admin,
	})
}

type loginRequest struct {
	EthAddress string `json:"ethAddress"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Message   string          `json:"message"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Profile   profileResponse `json:"profile"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := h.callContext(c.Request.Context())
	defer cancel()

	result, err := h.auth.Login(ctx, service.LoginInput{
		Identity: h.identityValue(req.EthAddress, req.Email),
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, result.Token, int(h.tokens.TTL().Seconds()), "/", "", h.cfg.Security.CookieSecure, true)
	c.JSON(http.StatusOK, loginResponse{
		Message:   "logged in successfully",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Profile:   newProfileResponse(result.Account),
	})
}

// Logout only clears the cookie. Issued tokens stay valid until they expire.
func (h HandlerSet) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cfg.Security.CookieSecure, true)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Check(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "info": claims})
}

func (h HandlerSet) identityValue(ethAddress, email string) string {
	if h.auth.IdentityKind() == models.IdentityAddress {
		return ethAddress
	}
	return email
}
