package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
)

// OrganizationController serves the location hierarchy, organizations and events
type OrganizationController struct {
	orgService   services.OrganizationService
	eventService services.EventService
}

// NewOrganizationController creates a new OrganizationController
func NewOrganizationController(orgService services.OrganizationService, eventService services.EventService) *OrganizationController {
	return &OrganizationController{
		orgService:   orgService,
		eventService: eventService,
	}
}

// ListLocations returns a handler listing one level of the hierarchy.
// Every level except countries needs a parentId query parameter.
// @Summary List locations
// @Tags locations
// @Produce json
// @Param parentId query string false "Parent location id"
// @Success 200 {object} dto.APIResponse{response=[]models.Location}
// @Failure 400 {object} dto.APIResponse "Missing parentId"
// @Router /locations/countries [get]
// @Router /locations/states [get]
// @Router /locations/zones [get]
// @Router /locations/districts [get]
func (c *OrganizationController) ListLocations(level models.LocationLevel) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		locations, err := c.orgService.ListLocations(ctx.Request.Context(), level, ctx.Query("parentId"))
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, locations))
	}
}

// ListOrganizations searches organizations
// @Summary List organizations
// @Tags organizations
// @Produce json
// @Param orgType query string false "College, Company or Community"
// @Param districtId query string false "District id"
// @Param search query string false "Title contains"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{response=dto.PaginatedResponse}
// @Failure 400 {object} dto.APIResponse "Unknown organization type"
// @Router /organizations [get]
func (c *OrganizationController) ListOrganizations(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.orgService.List(ctx.Request.Context(), repositories.OrganizationFilter{
		OrgType:    models.OrgType(ctx.Query("orgType")),
		DistrictID: ctx.Query("districtId"),
		Search:     ctx.Query("search"),
	}, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, resp))
}

// GetOrganization returns one organization with its aggregates
// @Summary Get organization
// @Tags organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} dto.APIResponse{response=models.OrganizationDetail}
// @Failure 404 {object} dto.APIResponse "Organization not found"
// @Router /organizations/{id} [get]
func (c *OrganizationController) GetOrganization(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	org, err := c.orgService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, org))
}

// ListEvents lists events that have not ended
// @Summary Upcoming events
// @Tags events
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{response=dto.PaginatedResponse}
// @Router /events [get]
func (c *OrganizationController) ListEvents(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.eventService.ListUpcoming(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, resp))
}

func badLevel(param string, level models.LocationLevel) error {
	return apperrors.NewBadRequestError(fmt.Sprintf("%s must be state, zone or district, got %q", param, level))
}
