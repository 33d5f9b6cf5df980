// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/rs/zerolog"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles member sign up
// @Summary Register a new member
// @Description Creates a user, its karma wallet and role, and returns a token pair. The muid is derived from the full name.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.APIResponse{response=dto.AuthResponse} "Registered"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Str("userID", resp.User.ID).
		Str("muid", resp.User.MUID).
		Msg("User registered")

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(http.StatusCreated, resp, "Registration successful"))
}

// Login handles user login
// @Summary User login
// @Description Authenticates with an email address or muid and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{response=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 403 {object} dto.APIResponse "Account disabled"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, resp))
}

// RefreshToken rotates a refresh token
// @Summary Refresh access token
// @Description Revokes the given refresh token and issues a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{response=dto.TokenResponse} "Token refreshed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid, expired or revoked refresh token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, resp))
}

// Me returns the caller's profile
// @Summary Current user
// @Description Profile of the authenticated user with roles, organizations and karma
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{response=dto.UserResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /users/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	resp, err := c.authService.GetProfile(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, resp))
}

// uuidParam reads a path parameter that must be a UUID. It writes a 400 and
// returns false otherwise.
func uuidParam(ctx *gin.Context, name string) (string, bool) {
	value := ctx.Param(name)
	if _, err := uuid.Parse(value); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(map[string][]string{
			name: {"must be a valid UUID"},
		}))
		return "", false
	}
	return value, true
}
