package routes

import (
	"cloud.google.com/go/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"

	"shams-vision/internal/adapters/http/handlers"
	"shams-vision/internal/adapters/http/middleware"
	"shams-vision/internal/adapters/persistence/repositories"
	"shams-vision/internal/config"
	"shams-vision/internal/core/services"
)

// Setup configures all routes for the application and returns the
// background scheduler for main to start
func Setup(app *fiber.App, db *gorm.DB, storageClient *storage.Client, cfg *config.Config) *services.SchedulerService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	pointsRepo := repositories.NewPointsRepository(db)
	visitRepo := repositories.NewVisitRepository(db)
	masterRepo := repositories.NewMasterRepository(db)
	leaveRepo := repositories.NewLeaveRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	fileRepo := repositories.NewFileRepository(db)

	// Initialize services; notifications first, the others push into it
	notificationService := services.NewNotificationService(notificationRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT)
	userService := services.NewUserService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, notificationService, cfg.Shift.Length)
	pointsService := services.NewPointsService(pointsRepo, notificationService)
	visitService := services.NewVisitService(visitRepo, masterRepo, pointsService, notificationService)
	routeService := services.NewRouteService(masterRepo, userRepo, pointsService, notificationService)
	leaveService := services.NewLeaveService(leaveRepo, notificationService)
	uploadService := services.NewUploadService(storageClient, fileRepo, cfg.Storage)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	visitHandler := handlers.NewVisitHandler(visitService)
	pointsHandler := handlers.NewPointsHandler(pointsService)
	routeHandler := handlers.NewRouteHandler(routeService)
	leaveHandler := handlers.NewLeaveHandler(leaveService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	uploadHandler := handlers.NewUploadHandler(uploadService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/register", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), authHandler.Register)
	authRoutes.Post("/logout", middleware.AuthMiddleware(cfg), authHandler.Logout)
	authRoutes.Post("/change-password", middleware.AuthMiddleware(cfg), authHandler.ChangePassword)

	// User routes
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Get("/me", userHandler.Me)
	userRoutes.Patch("/me", userHandler.UpdateMe)
	userRoutes.Get("/", middleware.AdminOnly(), userHandler.List)
	userRoutes.Get("/:id", middleware.AdminOnly(), userHandler.Get)
	userRoutes.Patch("/:id/role", middleware.AdminOnly(), userHandler.UpdateRole)
	userRoutes.Post("/:id/suspend", middleware.AdminOnly(), userHandler.Suspend)
	userRoutes.Delete("/:id", middleware.AdminOnly(), userHandler.Delete)

	// Session routes (field agents)
	sessionRoutes := apiV1.Group("/sessions")
	sessionRoutes.Use(middleware.AuthMiddleware(cfg))
	sessionRoutes.Post("/check-in", sessionHandler.CheckIn)
	sessionRoutes.Post("/break", sessionHandler.TakeBreak)
	sessionRoutes.Post("/resume", sessionHandler.Resume)
	sessionRoutes.Post("/check-out", sessionHandler.CheckOut)
	sessionRoutes.Get("/status", sessionHandler.Status)
	sessionRoutes.Get("/", sessionHandler.History)
	sessionRoutes.Get("/:id/breaks", sessionHandler.Breaks)

	// Store routes
	storeRoutes := apiV1.Group("/stores")
	storeRoutes.Use(middleware.AuthMiddleware(cfg))
	storeRoutes.Get("/", routeHandler.ListStores)
	storeRoutes.Get("/:id", routeHandler.GetStore)
	storeRoutes.Post("/", middleware.ManagerOrAdmin(), routeHandler.CreateStore)
	storeRoutes.Put("/:id", middleware.ManagerOrAdmin(), routeHandler.UpdateStore)

	// Route routes
	routeRoutes := apiV1.Group("/routes")
	routeRoutes.Use(middleware.AuthMiddleware(cfg))
	routeRoutes.Get("/", routeHandler.ListRoutes)
	routeRoutes.Get("/:id", routeHandler.GetRoute)
	routeRoutes.Post("/", middleware.ManagerOrAdmin(), routeHandler.CreateRoute)
	routeRoutes.Post("/:id/activate", routeHandler.ActivateRoute)
	routeRoutes.Post("/:id/close", middleware.ManagerOrAdmin(), routeHandler.CloseRoute)

	// Visit routes
	visitRoutes := apiV1.Group("/visits")
	visitRoutes.Use(middleware.AuthMiddleware(cfg))
	visitRoutes.Post("/", visitHandler.Start)
	visitRoutes.Get("/", visitHandler.List)
	visitRoutes.Post("/skip", visitHandler.Skip)
	visitRoutes.Get("/flags", middleware.ManagerOrAdmin(), visitHandler.ListFlags)
	visitRoutes.Post("/flags/:id/resolve", middleware.ManagerOrAdmin(), visitHandler.ResolveFlag)
	visitRoutes.Post("/images/:id/review", middleware.ManagerOrAdmin(), visitHandler.ReviewImage)
	visitRoutes.Get("/:id", visitHandler.Get)
	visitRoutes.Post("/:id/complete", visitHandler.Complete)
	visitRoutes.Post("/:id/flag", visitHandler.Flag)
	visitRoutes.Post("/:id/images", visitHandler.AddImage)

	// Points routes
	pointsRoutes := apiV1.Group("/points")
	pointsRoutes.Use(middleware.AuthMiddleware(cfg))
	pointsRoutes.Get("/balance", pointsHandler.Balance)
	pointsRoutes.Get("/transactions", pointsHandler.Transactions)
	pointsRoutes.Get("/leaderboard", pointsHandler.Leaderboard)
	pointsRoutes.Post("/redeem", pointsHandler.Redeem)

	// Penalty routes
	penaltyRoutes := apiV1.Group("/penalties")
	penaltyRoutes.Use(middleware.AuthMiddleware(cfg))
	penaltyRoutes.Get("/", pointsHandler.ListPenalties)
	penaltyRoutes.Post("/", middleware.ManagerOrAdmin(), pointsHandler.IssuePenalty)
	penaltyRoutes.Patch("/:id/status", middleware.ManagerOrAdmin(), pointsHandler.UpdatePenaltyStatus)

	// Leave routes
	leaveRoutes := apiV1.Group("/leaves")
	leaveRoutes.Use(middleware.AuthMiddleware(cfg))
	leaveRoutes.Post("/", leaveHandler.Submit)
	leaveRoutes.Get("/", leaveHandler.List)
	leaveRoutes.Get("/:id", leaveHandler.Get)
	leaveRoutes.Post("/:id/cancel", leaveHandler.Cancel)
	leaveRoutes.Post("/:id/review", middleware.ManagerOrAdmin(), leaveHandler.Review)

	// Notification routes
	notificationRoutes := apiV1.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/unread-count", notificationHandler.UnreadCount)
	notificationRoutes.Post("/read-all", notificationHandler.MarkAllRead)
	notificationRoutes.Post("/:id/read", notificationHandler.MarkRead)

	// File routes
	fileRoutes := apiV1.Group("/files")
	fileRoutes.Use(middleware.AuthMiddleware(cfg))
	fileRoutes.Post("/", uploadHandler.Upload)
	fileRoutes.Get("/", uploadHandler.List)
	fileRoutes.Get("/:id", uploadHandler.Get)
	fileRoutes.Get("/:id/url", uploadHandler.DownloadURL)

	return services.NewSchedulerService(sessionService, authService, cfg.Shift.AutoCheckoutCron)
}
