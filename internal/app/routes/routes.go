package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/controllers"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/middleware"
	"github.com/gtech-mulearn/mulearn/internal/pkg/websocket"
)

// Controllers bundles every HTTP handler the router mounts
type Controllers struct {
	Auth         *controllers.AuthController
	Karma        *controllers.KarmaController
	Leaderboard  *controllers.LeaderboardController
	Organization *controllers.OrganizationController
	Circle       *controllers.CircleController
	Voucher      *controllers.VoucherController
	Integration  *controllers.IntegrationController
	Stats        *controllers.StatsController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	landingSocket *websocket.Handler,
) {
	router.NoRoute(middleware.NoRoute())

	// Landing page live counts
	router.GET("/ws/landing", landingSocket.HandleConnection)

	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/health", ctrl.Stats.Health)
	v1.GET("/stats/landing", ctrl.Stats.Landing)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/refresh", ctrl.Auth.RefreshToken)
	}

	v1.GET("/tasks", ctrl.Karma.ListTasks)

	leaderboard := v1.Group("/leaderboard")
	{
		leaderboard.GET("/students", ctrl.Leaderboard.Students)
		leaderboard.GET("/organizations", ctrl.Leaderboard.Organizations)
		leaderboard.GET("/regions/:level", ctrl.Leaderboard.Regions)
	}

	locations := v1.Group("/locations")
	{
		locations.GET("/countries", ctrl.Organization.ListLocations(models.LevelCountry))
		locations.GET("/states", ctrl.Organization.ListLocations(models.LevelState))
		locations.GET("/zones", ctrl.Organization.ListLocations(models.LevelZone))
		locations.GET("/districts", ctrl.Organization.ListLocations(models.LevelDistrict))
	}

	v1.GET("/organizations", ctrl.Organization.ListOrganizations)
	v1.GET("/organizations/:id", ctrl.Organization.GetOrganization)
	v1.GET("/events", ctrl.Organization.ListEvents)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/users/me", ctrl.Auth.Me)
	authenticated.GET("/leaderboard/me", ctrl.Leaderboard.Me)

	karma := authenticated.Group("/karma/activities")
	{
		karma.POST("", ctrl.Karma.SubmitActivity)
		karma.GET("/me", ctrl.Karma.MyActivities)

		appraisers := karma.Group("")
		appraisers.Use(authMiddleware.RoleRequired(string(models.RoleAppraiser), string(models.RoleAdmins)))
		{
			appraisers.GET("/pending", ctrl.Karma.ListPending)
			appraisers.PATCH("/:id", ctrl.Karma.Appraise)
		}
	}

	circles := authenticated.Group("/circles")
	{
		circles.GET("", ctrl.Circle.ListCircles)
		circles.POST("", ctrl.Circle.CreateCircle)
		circles.GET("/:id", ctrl.Circle.GetCircle)
		circles.POST("/:id/join", ctrl.Circle.JoinCircle)
		circles.PATCH("/:id/requests/:userId", ctrl.Circle.RespondToRequest)
		circles.DELETE("/:id/members/me", ctrl.Circle.LeaveCircle)
		circles.PATCH("/:id/lead", ctrl.Circle.TransferLead)
		circles.GET("/:id/meetings", ctrl.Circle.ListMeetings)
		circles.POST("/:id/meetings", ctrl.Circle.ScheduleMeeting)
	}

	meetings := authenticated.Group("/meetings")
	{
		meetings.POST("/:id/attend", ctrl.Circle.Attend)
		meetings.POST("/:id/report", ctrl.Circle.SubmitReport)
	}

	vouchers := authenticated.Group("/vouchers")
	{
		vouchers.POST("/claim", ctrl.Voucher.Claim)
		vouchers.GET("/me", ctrl.Voucher.ListMine)
		vouchers.POST("", authMiddleware.RoleRequired(string(models.RoleAdmins), string(models.RoleAppraiser)), ctrl.Voucher.Issue)
	}

	integrations := authenticated.Group("/integrations")
	{
		integrations.POST("/kkem/link", ctrl.Integration.LinkKKEM)
		integrations.GET("/kkem/status", ctrl.Integration.KKEMStatus)
		integrations.DELETE("/kkem/link", ctrl.Integration.UnlinkKKEM)
		integrations.POST("/discord/link", ctrl.Integration.LinkDiscord)
	}
}
