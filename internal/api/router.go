package api

import (
	"net/http"

	"automedon/internal/api/middleware"
	"automedon/internal/modules/admin"
	"automedon/internal/modules/feed"
	"automedon/internal/modules/missions"
	"automedon/internal/modules/users"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	jwtSecret string,
	userHandler *users.Handler,
	missionHandler *missions.Handler,
	adminHandler *admin.Handler,
	feedHandler *feed.Handler,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)
	adminRequired := middleware.AdminRequired()
	convoyeurRequired := middleware.ConvoyeurRequired()
	creatorRequired := middleware.CreatorRequired()

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to Automédon!"})
	})

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", userHandler.Signup)
		authGroup.POST("/login", userHandler.Login)
		authGroup.POST("/activate", userHandler.Activate)
		authGroup.POST("/resend-activation", userHandler.ResendActivation)
		authGroup.POST("/request-password-reset", userHandler.RequestPasswordReset)
		authGroup.POST("/reset-password", userHandler.ResetPassword)
		authGroup.GET("/google/login", userHandler.GoogleLogin)
		authGroup.GET("/google/callback", userHandler.GoogleCallback)
	}

	// --- Profile Routes ---
	profileGroup := e.Group("/profile", authMiddleware)
	{
		profileGroup.GET("", userHandler.GetMyProfile)
		profileGroup.PUT("", userHandler.UpdateMyProfile)
		profileGroup.POST("/avatar", userHandler.UploadAvatar)
	}

	// --- Mission Routes ---
	missionGroup := e.Group("/missions", authMiddleware)
	{
		missionGroup.POST("", missionHandler.CreateMission, creatorRequired)
		missionGroup.GET("", missionHandler.ListMine)
		missionGroup.GET("/available", missionHandler.ListAvailable, convoyeurRequired)
		missionGroup.GET("/:missionId", missionHandler.GetMissionDetails)

		missionGroup.POST("/:missionId/claim", missionHandler.ClaimMission, convoyeurRequired)
		missionGroup.POST("/:missionId/start", missionHandler.StartMission, convoyeurRequired)
		missionGroup.POST("/:missionId/updates", missionHandler.AppendUpdate, convoyeurRequired)
		missionGroup.POST("/:missionId/expenses", missionHandler.AddExpense, convoyeurRequired)
		missionGroup.GET("/:missionId/expenses", missionHandler.ListExpenses)
		missionGroup.POST("/:missionId/complete", missionHandler.CompleteMission, convoyeurRequired)
		missionGroup.POST("/:missionId/photos", missionHandler.UploadPhoto, convoyeurRequired)

		missionGroup.PUT("/:missionId/sheets/:direction", missionHandler.SaveSheet, convoyeurRequired)
		missionGroup.GET("/:missionId/sheets/:direction", missionHandler.GetSheet)
		missionGroup.GET("/:missionId/sheets/:direction/pdf", missionHandler.GetSheetPDF)
	}

	// --- Realtime Feed ---
	e.GET("/ws/missions", feedHandler.HandleMissionFeed, authMiddleware)

	// --- Admin Routes ---
	adminGroup := e.Group("/admin", authMiddleware, adminRequired)
	{
		adminGroup.GET("/missions", adminHandler.ListAllMissions)
		adminGroup.GET("/missions/:missionId", adminHandler.GetMission)
		adminGroup.PUT("/missions/:missionId/pricing", adminHandler.SetPricing)
		adminGroup.POST("/missions/:missionId/reassign", adminHandler.ReassignMission)
		adminGroup.GET("/users", adminHandler.ListUsers)
	}
}
