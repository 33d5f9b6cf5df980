package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
)

// KarmaController exposes tasks and karma activities
type KarmaController struct {
	karmaService services.KarmaService
}

// NewKarmaController creates a new KarmaController
func NewKarmaController(karmaService services.KarmaService) *KarmaController {
	return &KarmaController{karmaService: karmaService}
}

// ListTasks lists the tasks karma can be claimed for
// @Summary List tasks
// @Tags karma
// @Produce json
// @Success 200 {object} dto.APIResponse{response=[]models.Task}
// @Router /tasks [get]
func (c *KarmaController) ListTasks(ctx *gin.Context) {
	tasks, err := c.karmaService.ListTasks(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, tasks))
}

// SubmitActivity claims karma for a task
// @Summary Submit a karma activity
// @Description Creates a pending activity for the task identified by hashtag
// @Tags karma
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitActivityRequest true "Activity"
// @Success 201 {object} dto.APIResponse{response=models.KarmaActivity}
// @Failure 400 {object} dto.APIResponse "Validation error or inactive task"
// @Failure 404 {object} dto.APIResponse "Task not found"
// @Router /karma/activities [post]
func (c *KarmaController) SubmitActivity(ctx *gin.Context) {
	var req dto.SubmitActivityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	activity, err := c.karmaService.SubmitActivity(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(http.StatusCreated, activity, "Activity submitted for appraisal"))
}

// MyActivities lists the caller's activities
// @Summary My karma activities
// @Tags karma
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{response=[]models.KarmaActivity}
// @Router /karma/activities/me [get]
func (c *KarmaController) MyActivities(ctx *gin.Context) {
	activities, err := c.karmaService.UserHistory(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, activities))
}

// ListPending lists activities waiting for appraisal
// @Summary Pending activities
// @Tags karma
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{response=dto.PaginatedResponse}
// @Failure 403 {object} dto.APIResponse "Appraiser or Admins role required"
// @Router /karma/activities/pending [get]
func (c *KarmaController) ListPending(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.karmaService.ListPending(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, resp))
}

// Appraise approves or rejects an activity
// @Summary Appraise an activity
// @Description Approving credits the task karma to the member's wallet
// @Tags karma
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Param request body dto.AppraiseRequest true "Decision"
// @Success 200 {object} dto.APIResponse{response=models.KarmaActivity}
// @Failure 404 {object} dto.APIResponse "Activity not found"
// @Failure 409 {object} dto.APIResponse "Already appraised"
// @Router /karma/activities/{id} [patch]
func (c *KarmaController) Appraise(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.AppraiseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	activity, err := c.karmaService.Appraise(ctx.Request.Context(), id, middleware.GetUserID(ctx), *req.Approve)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, activity))
}
