package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/auth"
	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/internal/handler"
	"github.com/vibewear/api/internal/middleware"
	ws "github.com/vibewear/api/internal/websocket"
	"github.com/vibewear/api/pkg/response"
)

const bodyLimit = 12 * 1024 * 1024

type Handlers struct {
	Design   *handler.DesignHandler
	Analysis *handler.AnalysisHandler
	Proxy    *handler.ProxyHandler
	Checkout *handler.CheckoutHandler
	Upload   *handler.UploadHandler
	Waitlist *handler.WaitlistHandler
	Auth     *handler.AuthHandler
	// Admin is nil when no generation log backend is available.
	Admin *handler.AdminHandler
}

type Options struct {
	Config        *config.Config
	Log           zerolog.Logger
	Handlers      Handlers
	Authenticator *auth.Authenticator
	RateLimiter   *middleware.RateLimiter
	Hub           *ws.Hub
	// Health reports per-dependency availability for GET /health.
	Health func(ctx context.Context) fiber.Map
}

// New builds the fiber app with every route the API serves.
func New(opts Options) *fiber.App {
	cfg := opts.Config
	h := opts.Handlers
	rl := opts.RateLimiter

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(opts.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders: "X-Request-ID,Retry-After",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": time.Now().Unix()})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		services := fiber.Map{}
		if opts.Health != nil {
			services = opts.Health(c.UserContext())
		}
		return c.JSON(fiber.Map{"status": "ok", "services": services})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", h.Auth.Verify)

	proxy := app.Group("/proxy", middleware.ProxySecret(cfg.Proxy.Secret))
	proxy.Post("/generate-design", h.Proxy.GenerateDesign)
	proxy.Post("/analyze-image", h.Proxy.AnalyzeImage)

	var optionalAuth, requireAuth fiber.Handler
	if cfg.Gateway.Enabled {
		optionalAuth = middleware.OptionalGatewayAuth()
		requireAuth = middleware.GatewayAuthMiddleware()
	} else {
		authn := middleware.NewAuthMiddleware(opts.Authenticator)
		optionalAuth = authn.OptionalAuthenticate()
		requireAuth = authn.Authenticate()
	}

	api := app.Group("/api", optionalAuth)

	designs := api.Group("/designs")
	designs.Get("/styles", h.Design.Styles)
	designs.Post("/generate", rl.DesignLimit(cfg.RateLimit.DesignsPerDay), h.Design.Generate)
	analysisLimit := rl.AnalysisLimit(cfg.RateLimit.AnalysisPerMin)
	designs.Post("/analyze", analysisLimit, h.Analysis.Analyze)
	designs.Post("/compare", analysisLimit, h.Analysis.Compare)
	designs.Post("/suggest", analysisLimit, h.Analysis.Suggest)

	api.Post("/checkout/designs", rl.CheckoutLimit(cfg.RateLimit.CheckoutPerHour), h.Checkout.Start)
	api.Get("/checkout/designs/:jobId", h.Checkout.Status)
	api.Get("/checkout/designs/:jobId/result", h.Checkout.Result)
	api.Post("/checkout/designs/:jobId/cancel", h.Checkout.Cancel)

	api.Post("/uploads/reference", rl.UploadLimit(cfg.RateLimit.UploadPerHour), h.Upload.Reference)
	api.Delete("/uploads/reference/:uploadId", h.Upload.DeleteReference)

	api.Post("/waitlist", h.Waitlist.Join)

	if h.Admin != nil {
		admin := api.Group("/admin", requireAuth, middleware.RequireAdmin(&cfg.Auth))
		admin.Get("/generations", h.Admin.Generations)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		opts.Hub.HandleConnection(c, c.Params("jobId"))
	}))

	return app
}

// ErrorHandler renders errors that escaped a handler in the API envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	apiCode := response.CodeServiceError
	switch code {
	case fiber.StatusNotFound:
		apiCode = response.CodeNotFound
	case fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest:
		apiCode = response.CodeValidationError
	}

	return response.Error(c, code, apiCode, message, nil)
}
