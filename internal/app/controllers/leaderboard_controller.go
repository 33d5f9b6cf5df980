package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
)

// LeaderboardController serves the ranked karma boards
type LeaderboardController struct {
	leaderboardService services.LeaderboardService
}

// NewLeaderboardController creates a new LeaderboardController
func NewLeaderboardController(leaderboardService services.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{leaderboardService: leaderboardService}
}

// Students ranks members by karma
// @Summary Student leaderboard
// @Tags leaderboard
// @Produce json
// @Param period query string false "all or monthly" default(all)
// @Param role query string false "Role to rank" default(Student)
// @Param orgId query string false "Restrict to one organization"
// @Param limit query int false "Number of rows" default(20)
// @Success 200 {object} dto.APIResponse{response=[]dto.LeaderboardEntry}
// @Failure 400 {object} dto.APIResponse "Unknown period"
// @Router /leaderboard/students [get]
func (c *LeaderboardController) Students(ctx *gin.Context) {
	entries, err := c.leaderboardService.Students(ctx.Request.Context(), services.StudentBoardQuery{
		Period: ctx.Query("period"),
		Role:   ctx.Query("role"),
		OrgID:  ctx.Query("orgId"),
		Limit:  helpers.ParseLimit(ctx, services.DefaultLeaderboardLimit, services.MaxLeaderboardLimit),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, entries))
}

// Organizations ranks organizations of one type
// @Summary Organization leaderboard
// @Tags leaderboard
// @Produce json
// @Param orgType query string false "College, Company or Community" default(College)
// @Param scope query string false "country, state, zone or district"
// @Param scopeId query string false "Location id for scope"
// @Param period query string false "all or monthly" default(all)
// @Param limit query int false "Number of rows" default(20)
// @Success 200 {object} dto.APIResponse{response=[]dto.LeaderboardEntry}
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Router /leaderboard/organizations [get]
func (c *LeaderboardController) Organizations(ctx *gin.Context) {
	scope := models.LocationLevel(ctx.Query("scope"))
	switch scope {
	case "", models.LevelCountry, models.LevelState, models.LevelZone, models.LevelDistrict:
	default:
		middleware.HandleAPIError(ctx, badLevel("scope", scope))
		return
	}

	entries, err := c.leaderboardService.Organizations(ctx.Request.Context(), services.OrganizationBoardQuery{
		OrgType: models.OrgType(ctx.DefaultQuery("orgType", string(models.OrgTypeCollege))),
		Scope:   scope,
		ScopeID: ctx.Query("scopeId"),
		Period:  ctx.Query("period"),
		Limit:   helpers.ParseLimit(ctx, services.DefaultLeaderboardLimit, services.MaxLeaderboardLimit),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, entries))
}

// Regions ranks districts, zones or states
// @Summary Region leaderboard
// @Tags leaderboard
// @Produce json
// @Param level path string true "district, zone or state"
// @Param parentId query string false "Only regions under this location"
// @Param period query string false "all or monthly" default(all)
// @Param limit query int false "Number of rows" default(20)
// @Success 200 {object} dto.APIResponse{response=[]dto.LeaderboardEntry}
// @Failure 400 {object} dto.APIResponse "Unknown level"
// @Router /leaderboard/regions/{level} [get]
func (c *LeaderboardController) Regions(ctx *gin.Context) {
	level := models.LocationLevel(ctx.Param("level"))
	switch level {
	case models.LevelState, models.LevelZone, models.LevelDistrict:
	default:
		middleware.HandleAPIError(ctx, badLevel("level", level))
		return
	}

	entries, err := c.leaderboardService.Regions(ctx.Request.Context(), services.RegionBoardQuery{
		Level:    level,
		ParentID: ctx.Query("parentId"),
		Period:   ctx.Query("period"),
		Limit:    helpers.ParseLimit(ctx, services.DefaultLeaderboardLimit, services.MaxLeaderboardLimit),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, entries))
}

// Me returns the caller's overall and monthly rank
// @Summary My rank
// @Tags leaderboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{response=dto.UserRankResponse}
// @Router /leaderboard/me [get]
func (c *LeaderboardController) Me(ctx *gin.Context) {
	rank, err := c.leaderboardService.UserRank(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, rank))
}
