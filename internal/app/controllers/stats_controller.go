package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/rs/zerolog"
)

// CountsProvider returns the landing page counters
type CountsProvider interface {
	Snapshot(ctx context.Context) (*models.LandingCounts, error)
}

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsController serves public counters and the health check
type StatsController struct {
	counts CountsProvider
	db     Pinger
	logger zerolog.Logger
}

// NewStatsController creates a new StatsController
func NewStatsController(counts CountsProvider, db Pinger, logger zerolog.Logger) *StatsController {
	return &StatsController{
		counts: counts,
		db:     db,
		logger: logger,
	}
}

// Landing returns the landing page counters
// @Summary Landing page counts
// @Description Same payload the /ws/landing socket pushes on every change
// @Tags stats
// @Produce json
// @Success 200 {object} dto.APIResponse{response=models.LandingCounts}
// @Router /stats/landing [get]
func (c *StatsController) Landing(ctx *gin.Context) {
	counts, err := c.counts.Snapshot(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, counts))
}

// Health reports whether the database answers
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 503 {object} dto.APIResponse "Database unreachable"
// @Router /health [get]
func (c *StatsController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		c.logger.Error().Err(err).Msg("Health check failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(http.StatusServiceUnavailable, "Database unreachable"))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, gin.H{"status": "ok"}))
}
