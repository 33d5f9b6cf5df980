package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// CircleController handles learning circles and their meetings
type CircleController struct {
	circleService services.CircleService
	logger        zerolog.Logger
}

// NewCircleController creates a new CircleController
func NewCircleController(circleService services.CircleService, logger zerolog.Logger) *CircleController {
	return &CircleController{
		circleService: circleService,
		logger:        logger,
	}
}

// ListCircles searches learning circles
// @Summary List learning circles
// @Tags circles
// @Produce json
// @Security BearerAuth
// @Param orgId query string false "Organization id"
// @Param search query string false "Name contains"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{response=dto.PaginatedResponse}
// @Router /circles [get]
func (c *CircleController) ListCircles(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.circleService.List(ctx.Request.Context(), repositories.CircleFilter{
		OrgID:  ctx.Query("orgId"),
		Search: ctx.Query("search"),
	}, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, resp))
}

// CreateCircle starts a circle led by the caller
// @Summary Create a learning circle
// @Tags circles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCircleRequest true "Circle"
// @Success 201 {object} dto.APIResponse{response=models.LearningCircle}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Organization not found"
// @Router /circles [post]
func (c *CircleController) CreateCircle(ctx *gin.Context) {
	var req dto.CreateCircleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	circle, err := c.circleService.Create(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("circleID", circle.ID).Str("code", circle.CircleCode).Msg("Learning circle created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(http.StatusCreated, circle, "Learning circle created"))
}

// GetCircle returns a circle with its members
// @Summary Get a learning circle
// @Description Pending join requests are included only for the lead
// @Tags circles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circle ID"
// @Success 200 {object} dto.APIResponse{response=dto.CircleDetailResponse}
// @Failure 404 {object} dto.APIResponse "Circle not found"
// @Router /circles/{id} [get]
func (c *CircleController) GetCircle(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	detail, err := c.circleService.Get(ctx.Request.Context(), id, middleware.GetUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, detail))
}

// JoinCircle requests membership
// @Summary Request to join a circle
// @Tags circles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circle ID"
// @Success 200 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Already a member or circle full"
// @Router /circles/{id}/join [post]
func (c *CircleController) JoinCircle(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.circleService.Join(ctx.Request.Context(), id, middleware.GetUserID(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, nil, "Join request sent"))
}

// RespondToRequest lets the lead accept or reject a pending member
// @Summary Respond to a join request
// @Tags circles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circle ID"
// @Param userId path string true "Requesting user ID"
// @Param request body dto.RespondToRequest true "Decision"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse "Not the circle lead"
// @Failure 409 {object} dto.APIResponse "Circle full"
// @Router /circles/{id}/requests/{userId} [patch]
func (c *CircleController) RespondToRequest(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	memberID, ok := uuidParam(ctx, "userId")
	if !ok {
		return
	}
	var req dto.RespondToRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	err := c.circleService.RespondToRequest(ctx.Request.Context(), id, middleware.GetUserID(ctx), memberID, *req.Accept)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	msg := "Request rejected"
	if *req.Accept {
		msg = "Request accepted"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, nil, msg))
}

// LeaveCircle removes the caller from a circle
// @Summary Leave a circle
// @Description A leaving lead hands over to the longest standing member; the last member leaving deletes the circle
// @Tags circles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circle ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse "Not a member"
// @Router /circles/{id}/members/me [delete]
func (c *CircleController) LeaveCircle(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.circleService.Leave(ctx.Request.Context(), id, middleware.GetUserID(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, nil, "Left learning circle"))
}

// TransferLead hands the circle to another member
// @Summary Transfer circle lead
// @Tags circles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circle ID"
// @Param request body dto.TransferLeadRequest true "New lead"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse "Not the circle lead"
// @Router /circles/{id}/lead [patch]
func (c *CircleController) TransferLead(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.TransferLeadRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.circleService.TransferLead(ctx.Request.Context(), id, middleware.GetUserID(ctx), req.NewLeadID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, nil, "Lead transferred"))
}

// ListMeetings lists a circle's meetings
// @Summary List circle meetings
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circle ID"
// @Success 200 {object} dto.APIResponse{response=[]models.CircleMeeting}
// @Router /circles/{id}/meetings [get]
func (c *CircleController) ListMeetings(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	meetings, err := c.circleService.ListMeetings(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, meetings))
}

// ScheduleMeeting creates a meeting
// @Summary Schedule a meeting
// @Description Only the lead can schedule. One meeting per day and a weekly cap apply.
// @Tags meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circle ID"
// @Param request body dto.ScheduleMeetingRequest true "Meeting"
// @Success 201 {object} dto.APIResponse{response=models.CircleMeeting}
// @Failure 400 {object} dto.APIResponse "Meeting in the past"
// @Failure 403 {object} dto.APIResponse "Not the circle lead"
// @Failure 409 {object} dto.APIResponse "Day taken or weekly limit reached"
// @Router /circles/{id}/meetings [post]
func (c *CircleController) ScheduleMeeting(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ScheduleMeetingRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	meeting, err := c.circleService.ScheduleMeeting(ctx.Request.Context(), id, middleware.GetUserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(http.StatusCreated, meeting, "Meeting scheduled"))
}

// Attend marks the caller present at a meeting
// @Summary Attend a meeting
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Meeting ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse "Meeting is not today"
// @Failure 403 {object} dto.APIResponse "Not a circle member"
// @Router /meetings/{id}/attend [post]
func (c *CircleController) Attend(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.circleService.Attend(ctx.Request.Context(), id, middleware.GetUserID(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, nil, "Attendance marked"))
}

// SubmitReport closes a meeting with a report
// @Summary Submit a meeting report
// @Description The lead reports on a past meeting; attendees get karma activities for the report task
// @Tags meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Meeting ID"
// @Param request body dto.MeetingReportRequest true "Report"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse "Meeting has not happened"
// @Failure 409 {object} dto.APIResponse "Report already submitted"
// @Router /meetings/{id}/report [post]
func (c *CircleController) SubmitReport(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.MeetingReportRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.circleService.SubmitReport(ctx.Request.Context(), id, middleware.GetUserID(ctx), req.Report); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, nil, "Report submitted"))
}
