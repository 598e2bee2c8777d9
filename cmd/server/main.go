package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harborcrm/backend/internal/application/services"
	"github.com/harborcrm/backend/internal/bootstrap"
	"github.com/harborcrm/backend/internal/config"
	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/database"
	"github.com/harborcrm/backend/internal/interfaces/middleware"
	"github.com/harborcrm/backend/internal/interfaces/rest"
	pkgauth "github.com/harborcrm/backend/pkg/auth"
)

func main() {
	cfg := config.Load()
	pkgauth.Configure(cfg.JWTSecret)

	// Initialize database connection
	db, err := database.GetInstance(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := bootstrap.SeedSystemData(db); err != nil {
		log.Fatalf("Failed to seed system data: %v", err)
	}

	// Cache is optional; an empty REDIS_ADDR disables it and every read falls
	// through to the database.
	store := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if store.Enabled() {
		if err := store.Ping(context.Background()); err != nil {
			log.Printf("⚠️  Redis unreachable, continuing without cache: %v", err)
		} else {
			log.Println("✅ Redis cache connected")
		}
	}

	svcMgr := services.NewServiceManager(db.DB(), store, cfg.TokenTTL)
	log.Println("🔧 Service manager initialized")

	scheduler := services.NewScheduler(svcMgr.Sessions, store)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.Cors(cfg.CORSOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Initialize handlers
	authHandler := rest.NewAuthHandler(svcMgr)
	tenantHandler := rest.NewTenantHandler(svcMgr)
	userHandler := rest.NewUserHandler(svcMgr)
	leadHandler := rest.NewLeadHandler(svcMgr)
	accountHandler := rest.NewAccountHandler(svcMgr)
	contactHandler := rest.NewContactHandler(svcMgr)
	opportunityHandler := rest.NewOpportunityHandler(svcMgr)
	activityHandler := rest.NewActivityHandler(svcMgr)
	dashboardHandler := rest.NewDashboardHandler(svcMgr)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireAdmin := middleware.RequireAdmin()

	// API routes
	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetMe)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
		}

		// Public: self-service tenant signup
		api.POST("/tenants/register", tenantHandler.Register)

		tenant := api.Group("/tenant")
		tenant.Use(requireAuth)
		{
			tenant.GET("", tenantHandler.Get)
			tenant.PATCH("", requireAdmin, tenantHandler.Update)
			tenant.DELETE("", requireAdmin, tenantHandler.Deactivate)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", requireAdmin, userHandler.Create)
			users.PATCH("/:id", requireAdmin, userHandler.Update)
			users.DELETE("/:id", requireAdmin, userHandler.Delete)
		}

		leads := api.Group("/leads")
		leads.Use(requireAuth)
		{
			leads.GET("", leadHandler.List)
			leads.POST("", leadHandler.Create)
			leads.GET("/:id", leadHandler.Get)
			leads.PATCH("/:id", leadHandler.Update)
			leads.DELETE("/:id", leadHandler.Delete)
			leads.POST("/:id/convert", leadHandler.Convert)
			leads.POST("/:id/restore", leadHandler.Restore)
		}

		accounts := api.Group("/accounts")
		accounts.Use(requireAuth)
		{
			accounts.GET("", accountHandler.List)
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.Get)
			accounts.PATCH("/:id", accountHandler.Update)
			accounts.DELETE("/:id", accountHandler.Delete)
			accounts.POST("/:id/restore", accountHandler.Restore)
		}

		contacts := api.Group("/contacts")
		contacts.Use(requireAuth)
		{
			contacts.GET("", contactHandler.List)
			contacts.POST("", contactHandler.Create)
			contacts.GET("/:id", contactHandler.Get)
			contacts.PATCH("/:id", contactHandler.Update)
			contacts.DELETE("/:id", contactHandler.Delete)
			contacts.POST("/:id/restore", contactHandler.Restore)
		}

		opportunities := api.Group("/opportunities")
		opportunities.Use(requireAuth)
		{
			// /pipeline must register before /:id to avoid route conflicts
			opportunities.GET("/pipeline", opportunityHandler.Pipeline)
			opportunities.GET("", opportunityHandler.List)
			opportunities.POST("", opportunityHandler.Create)
			opportunities.GET("/:id", opportunityHandler.Get)
			opportunities.PATCH("/:id", opportunityHandler.Update)
			opportunities.DELETE("/:id", opportunityHandler.Delete)
			opportunities.POST("/:id/stage", opportunityHandler.ChangeStage)
			opportunities.POST("/:id/restore", opportunityHandler.Restore)
		}

		activities := api.Group("/activities")
		activities.Use(requireAuth)
		{
			activities.GET("/overdue", activityHandler.ListOverdue)
			activities.GET("", activityHandler.List)
			activities.POST("", activityHandler.Create)
			activities.GET("/:id", activityHandler.Get)
			activities.PATCH("/:id", activityHandler.Update)
			activities.DELETE("/:id", activityHandler.Delete)
			activities.POST("/:id/complete", activityHandler.Complete)
		}

		api.GET("/dashboard/summary", requireAuth, dashboardHandler.Summary)
	}

	log.Println("🚀 HarborCRM backend started")
	log.Printf("📍 Server:       http://localhost:%s", cfg.Port)
	log.Printf("🔐 Auth API:     http://localhost:%s/api/auth", cfg.Port)
	log.Printf("💚 Health check: http://localhost:%s/health", cfg.Port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown: drain in-flight requests for up to 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	if err := store.Close(); err != nil {
		log.Printf("⚠️  Failed to close cache: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("⚠️  Failed to close database: %v", err)
	}

	log.Println("Server exiting")
}
