package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/rs/zerolog"
)

// VoucherController issues and redeems karma vouchers
type VoucherController struct {
	voucherService services.VoucherService
	logger         zerolog.Logger
}

// NewVoucherController creates a new VoucherController
func NewVoucherController(voucherService services.VoucherService, logger zerolog.Logger) *VoucherController {
	return &VoucherController{
		voucherService: voucherService,
		logger:         logger,
	}
}

// Issue creates a batch of vouchers
// @Summary Issue vouchers
// @Description Each item names a user by muid or email. The whole batch fails if any item is invalid.
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.IssueVouchersRequest true "Vouchers"
// @Success 201 {object} dto.APIResponse{response=[]models.Voucher}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Appraiser or Admins role required"
// @Failure 404 {object} dto.APIResponse "User or task not found"
// @Router /vouchers [post]
func (c *VoucherController) Issue(ctx *gin.Context) {
	var req dto.IssueVouchersRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	issuerID := middleware.GetUserID(ctx)
	vouchers, err := c.voucherService.Issue(ctx.Request.Context(), issuerID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("issuerID", issuerID).Int("count", len(vouchers)).Msg("Vouchers issued")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(http.StatusCreated, vouchers))
}

// Claim redeems a voucher owned by the caller
// @Summary Claim a voucher
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ClaimVoucherRequest true "Voucher code"
// @Success 200 {object} dto.APIResponse{response=models.Voucher}
// @Failure 403 {object} dto.APIResponse "Voucher belongs to another user"
// @Failure 404 {object} dto.APIResponse "Voucher not found"
// @Failure 409 {object} dto.APIResponse "Voucher already claimed"
// @Router /vouchers/claim [post]
func (c *VoucherController) Claim(ctx *gin.Context) {
	var req dto.ClaimVoucherRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	voucher, err := c.voucherService.Claim(ctx.Request.Context(), middleware.GetUserID(ctx), req.Code)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, voucher, "Voucher claimed"))
}

// ListMine lists the caller's vouchers
// @Summary My vouchers
// @Tags vouchers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{response=[]models.Voucher}
// @Router /vouchers/me [get]
func (c *VoucherController) ListMine(ctx *gin.Context) {
	vouchers, err := c.voucherService.ListMine(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, vouchers))
}
