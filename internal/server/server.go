// Package server assembles services, handlers and middleware into the HTTP application.
package server

import (
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/voyagery/voyagery-api/internal/apidoc"
	"github.com/voyagery/voyagery-api/internal/blob"
	"github.com/voyagery/voyagery-api/internal/config"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/handlers"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/internal/oauth"
	"github.com/voyagery/voyagery-api/internal/services"
)

// JSON and form bodies; multipart uploads are capped by the document handler
const jsonBodyLimit = 1 << 20

type Options struct {
	Sessions services.SessionStore
	Blobs    blob.Store
	// Extra health checks next to the database one, keyed by component name.
	Health map[string]handlers.HealthChecker
	// Providers added on top of the configured ones. Tests use this for fake OAuth providers.
	Providers []oauth.Provider
}

type App struct {
	Handler  http.Handler
	Auth     *handlers.AuthHandler
	Sessions services.SessionStore
	Cookies  *services.CookieCodec
}

func New(cfg *config.Config, db *database.DB, opts Options) *App {
	cookies := services.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	profileService := services.NewProfileService(db)
	userService := services.NewUserService(db, profileService)
	authService := services.NewAuthService(userService, opts.Sessions)
	notificationService := services.NewNotificationService(db)
	notificationService.SetMailer(services.NewEmailService(cfg.SMTP, cfg.FrontendURL))
	guideSessionService := services.NewGuideSessionService(db, notificationService)
	documentService := services.NewDocumentService(db, opts.Blobs)
	reviewService := services.NewReviewService(db, guideSessionService, profileService, notificationService)
	messageService := services.NewMessageService(db, notificationService)
	dashboardService := services.NewDashboardService(db)

	authHandler := handlers.NewAuthHandler(cfg, userService, authService, cookies)
	for _, p := range opts.Providers {
		authHandler.RegisterProvider(p)
	}
	guideSessionHandler := handlers.NewGuideSessionHandler(guideSessionService)
	documentHandler := handlers.NewDocumentHandler(documentService, cfg.MaxUploadBytes)
	profileHandler := handlers.NewProfileHandler(profileService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	messageHandler := handlers.NewMessageHandler(messageService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	checks := map[string]handlers.HealthChecker{"database": db}
	for name, check := range opts.Health {
		checks[name] = check
	}
	healthHandler := handlers.NewHealthHandler(checks)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(driftmw.Recovery())
	app.Use(middleware.AllowCredentials(cfg.AllowedOrigins))
	app.Use(driftmw.CORSWithConfig(driftmw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", middleware.TabIDHeader},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser(jsonBodyLimit))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Session(authService, cookies))

	auth := app.Group("/auth")
	auth.Get("/providers", authHandler.ListProviders)
	for _, name := range authHandler.Providers() {
		auth.Get("/"+name, authHandler.Begin(name))
		auth.Get("/"+name+"/callback", authHandler.Callback(name))
	}
	auth.Post("/demo-login", authHandler.DemoLogin)
	auth.Post("/manual-login", authHandler.ManualLogin)
	auth.Get("/user", authHandler.CurrentUser)
	auth.Post("/set-role", authHandler.SetRole)
	auth.Get("/logout", authHandler.Logout)
	auth.Delete("/tabs/:tabId", authHandler.ForgetTab)

	api := app.Group("/api")
	api.Get("/health", healthHandler.Health)
	api.Get("/openapi.json", apidoc.Handler(apidoc.MustLoad()))

	authed := api.Group("")
	authed.Use(middleware.RequireAuth())

	authed.Get("/guide-sessions", guideSessionHandler.List)
	authed.Get("/guide-sessions/:id", guideSessionHandler.Get)

	authed.Post("/documents/upload", documentHandler.Upload)
	authed.Get("/documents", documentHandler.List)
	authed.Get("/documents/download/:fileId", documentHandler.Download)
	authed.Delete("/documents/:id", documentHandler.Delete)

	authed.Get("/profiles/:userId", profileHandler.Get)
	authed.Patch("/profiles/me", profileHandler.UpdateMe)
	authed.Get("/guides", profileHandler.ListGuides)

	authed.Get("/notifications", notificationHandler.List)
	authed.Patch("/notifications/:id", notificationHandler.MarkRead)
	authed.Post("/notifications/read-all", notificationHandler.MarkAllRead)

	authed.Get("/reviews", reviewHandler.List)

	authed.Post("/messages", messageHandler.Send)
	authed.Get("/messages", messageHandler.Conversation)

	authed.Get("/dashboard/stats", dashboardHandler.Stats)

	migrantOnly := api.Group("")
	migrantOnly.Use(middleware.RequireRole(models.RoleMigrant))

	migrantOnly.Post("/guide-sessions", guideSessionHandler.Create)
	migrantOnly.Patch("/guide-sessions/:id", guideSessionHandler.Update)
	migrantOnly.Delete("/guide-sessions/:id", guideSessionHandler.Cancel)
	migrantOnly.Post("/reviews", reviewHandler.Create)

	guideOnly := api.Group("")
	guideOnly.Use(middleware.RequireRole(models.RoleGuide))

	guideOnly.Post("/guide-sessions/:id/accept", guideSessionHandler.Accept)
	guideOnly.Post("/guide-sessions/:id/decline", guideSessionHandler.Decline)
	guideOnly.Post("/guide-sessions/:id/complete", guideSessionHandler.Complete)

	return &App{
		Handler:  app,
		Auth:     authHandler,
		Sessions: opts.Sessions,
		Cookies:  cookies,
	}
}
