package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
)

// IntegrationController links member accounts to external platforms
type IntegrationController struct {
	integrationService services.IntegrationService
}

// NewIntegrationController creates a new IntegrationController
func NewIntegrationController(integrationService services.IntegrationService) *IntegrationController {
	return &IntegrationController{integrationService: integrationService}
}

// LinkKKEM links the caller to a KKEM account
// @Summary Link KKEM
// @Description Decrypts the parameter from the KKEM redirect and stores the jsid
// @Tags integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.KKEMLinkRequest true "Encrypted parameter"
// @Success 200 {object} dto.APIResponse{response=dto.KKEMStatusResponse}
// @Failure 400 {object} dto.APIResponse "Invalid payload"
// @Failure 409 {object} dto.APIResponse "KKEM account linked to another user"
// @Router /integrations/kkem/link [post]
func (c *IntegrationController) LinkKKEM(ctx *gin.Context) {
	var req dto.KKEMLinkRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	status, err := c.integrationService.LinkKKEM(ctx.Request.Context(), middleware.GetUserID(ctx), req.Param)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, status, "KKEM account linked"))
}

// KKEMStatus reports whether the caller is linked
// @Summary KKEM link status
// @Tags integrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{response=dto.KKEMStatusResponse}
// @Router /integrations/kkem/status [get]
func (c *IntegrationController) KKEMStatus(ctx *gin.Context) {
	status, err := c.integrationService.KKEMStatus(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, status))
}

// UnlinkKKEM removes the caller's KKEM link
// @Summary Unlink KKEM
// @Tags integrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Not linked"
// @Router /integrations/kkem/link [delete]
func (c *IntegrationController) UnlinkKKEM(ctx *gin.Context) {
	if err := c.integrationService.UnlinkKKEM(ctx.Request.Context(), middleware.GetUserID(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, nil, "KKEM account unlinked"))
}

// LinkDiscord queues a Discord link for the caller
// @Summary Link Discord
// @Description The access token is resolved to a Discord id in the background
// @Tags integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DiscordLinkRequest true "Discord OAuth token"
// @Success 202 {object} dto.APIResponse
// @Router /integrations/discord/link [post]
func (c *IntegrationController) LinkDiscord(ctx *gin.Context) {
	var req dto.DiscordLinkRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.integrationService.LinkDiscord(ctx.Request.Context(), middleware.GetUserID(ctx), req.AccessToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(http.StatusAccepted, nil, "Discord link queued"))
}
