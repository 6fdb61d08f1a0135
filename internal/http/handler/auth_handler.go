package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ramtsps/Art-Academy-Website/internal/config"
	"github.com/ramtsps/Art-Academy-Website/internal/domain"
	"github.com/ramtsps/Art-Academy-Website/internal/http/middleware"
	"github.com/ramtsps/Art-Academy-Website/internal/service"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthHandler exposes the account endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	cfg    config.Config
	logger *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, cfg config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, cfg: cfg, logger: logger}
}

// userBody is the wire shape of a user in success responses. The
// password hash never leaves the service layer.
type userBody struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

func toUserBody(u domain.User) userBody {
	return userBody{
		ID:     strconv.FormatInt(u.ID, 10),
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}

// picture accepts both the bare URL string Google sends and Facebook's
// nested {data:{url}} object, normalizing to a bare URL.
type picture string

func (p *picture) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*p = picture(plain)
		return nil
	}
	var nested struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("unrecognized picture payload")
	}
	*p = picture(nested.Data.URL)
	return nil
}

// Register creates a local account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		fail(c, http.StatusBadRequest, "Invalid email format")
		return
	}
	if len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	result, err := h.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    toUserBody(result.User),
	})
}

// Login authenticates a local account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    toUserBody(result.User),
	})
}

// GoogleLogin reconciles a Google profile.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	h.socialLogin(c, domain.ProviderGoogle)
}

// FacebookLogin reconciles a Facebook profile.
func (h *AuthHandler) FacebookLogin(c *gin.Context) {
	h.socialLogin(c, domain.ProviderFacebook)
}

func (h *AuthHandler) socialLogin(c *gin.Context, provider string) {
	var req struct {
		Profile *struct {
			ID      string  `json:"id"`
			Name    string  `json:"name"`
			Email   string  `json:"email"`
			Picture picture `json:"picture"`
		} `json:"profile"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Profile == nil || req.Profile.Email == "" {
		fail(c, http.StatusBadRequest, "Profile data is required")
		return
	}

	result, err := h.Auth.SocialLogin(c.Request.Context(), provider, domain.SocialProfile{
		ID:      req.Profile.ID,
		Name:    req.Profile.Name,
		Email:   req.Profile.Email,
		Picture: string(req.Profile.Picture),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     result.Token,
		"user":      toUserBody(result.User),
		"isNewUser": result.IsNewUser,
	})
}

// ForgotPassword starts the OTP reset flow.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		fail(c, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("forgot password failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Error sending OTP email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": service.ForgotPasswordMessage})
}

// VerifyOTP checks a reset code without consuming it.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.OTP == "" {
		fail(c, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	if err := h.Auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "OTP verified successfully",
		"verified": true,
	})
}

// ResetPassword completes the OTP reset flow.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.OTP == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Email, OTP and password are required")
		return
	}

	if err := h.Auth.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset successfully"})
}

// Me returns the profile behind the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetSessionClaims(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	userID, err := claims.ParsedUserID()
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := h.Auth.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": toUserBody(user)})
}

func (h *AuthHandler) respondError(c *gin.Context, err error) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		fail(c, authErr.Status, authErr.Message)
		return
	}

	h.logger.Error("auth request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	message := "Internal server error"
	if !h.cfg.IsProduction() {
		message = "Internal server error: " + err.Error()
	}
	fail(c, http.StatusInternalServerError, message)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
