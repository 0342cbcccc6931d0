package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/auth"
	"github.com/vibewear/api/internal/client"
	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/internal/handler"
	"github.com/vibewear/api/internal/logger"
	"github.com/vibewear/api/internal/middleware"
	"github.com/vibewear/api/internal/server"
	"github.com/vibewear/api/internal/service"
	"github.com/vibewear/api/internal/store"
	ws "github.com/vibewear/api/internal/websocket"
	"github.com/vibewear/api/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not available")
	}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	validate := validator.New()

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	openaiClient := client.NewOpenAIClient(&cfg.OpenAI)
	if !openaiClient.IsConfigured() {
		log.Warn().Msg("OPENAI_API_KEY not set, proxy endpoints will refuse requests")
	}
	designProxy := client.NewDesignProxyClient(&cfg.Proxy)
	analysisProxy := client.NewAnalysisProxyClient(&cfg.Proxy)

	// R2 is optional; uploads fall back to mock URLs and artwork is not copied
	var storage client.StorageClient
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Warn().Err(err).Msg("R2 client not initialized")
		} else {
			storage = r2Client
		}
	} else {
		log.Info().Msg("R2 storage not configured, using mock storage")
	}

	var tokenVerifier auth.TokenVerifier
	if cfg.Zitadel.Issuer != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(ctx, &cfg.Zitadel)
		if err != nil {
			log.Warn().Err(err).Msg("JWKS verifier not initialized")
		} else {
			tokenVerifier = jwksVerifier
			defer jwksVerifier.Close()
		}
	}
	authenticator := auth.NewAuthenticator(tokenVerifier, cfg.JWT.Secret)

	var recorder service.GenerationRecorder
	var adminHandler *handler.AdminHandler
	generationLog, err := store.Open(ctx, &cfg.GenerationLog, redisClient)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.GenerationLog.Driver).Msg("generation log unavailable, attempts will not be recorded")
	} else {
		defer generationLog.Close()
		recorder = generationLog
		adminHandler = handler.NewAdminHandler(generationLog)
	}

	designService := service.NewDesignService(designProxy, recorder, log)
	analysisService := service.NewAnalysisService(analysisProxy, openaiClient.ChatModel(), log)
	checkoutService := service.NewCheckoutService(redisClient, asynqClient)
	uploadService := service.NewUploadService(storage)
	artworkService := service.NewArtworkService(storage, nil)
	waitlistService := service.NewWaitlistService(redisClient)

	app := server.New(server.Options{
		Config: cfg,
		Log:    log,
		Handlers: server.Handlers{
			Design:   handler.NewDesignHandler(designService, validate),
			Analysis: handler.NewAnalysisHandler(analysisService, validate),
			Proxy:    handler.NewProxyHandler(openaiClient, validate, log),
			Checkout: handler.NewCheckoutHandler(checkoutService, validate),
			Upload:   handler.NewUploadHandler(uploadService),
			Waitlist: handler.NewWaitlistHandler(waitlistService, validate),
			Auth:     handler.NewAuthHandler(authenticator),
			Admin:    adminHandler,
		},
		Authenticator: authenticator,
		RateLimiter:   middleware.NewRateLimiter(middleware.NewRedisCounter(redisClient), log),
		Hub:           hub,
		Health: func(ctx context.Context) fiber.Map {
			return fiber.Map{
				"openai":        openaiClient.IsConfigured(),
				"redis":         redisClient.Ping(ctx).Err() == nil,
				"r2":            storage != nil,
				"auth":          authenticator.Configured(),
				"generationLog": generationLog != nil,
			}
		},
	})

	var artwork worker.ArtworkStore
	if artworkService.Enabled() {
		artwork = artworkService
	}
	checkoutWorker := worker.NewCheckoutWorker(checkoutService, designService, artwork, hub, log)
	workerSrv, err := startWorkerServer(cfg, redisOpt, log, checkoutWorker)
	if err != nil {
		log.Error().Err(err).Msg("asynq worker not started")
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("env", cfg.Server.Env).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Error().Err(err).Msg("server error")
	}

	if workerSrv != nil {
		workerSrv.Shutdown()
	}
}

func startWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt, log zerolog.Logger, checkoutWorker *worker.CheckoutWorker) (*asynq.Server, error) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"checkout": 1,
		},
		Logger:   logger.NewAsynqLogger(log),
		LogLevel: logger.AsynqLevel(cfg.Server.LogLevel),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeCheckoutDesign, checkoutWorker.ProcessTask)

	if err := srv.Start(mux); err != nil {
		return nil, err
	}
	return srv, nil
}
