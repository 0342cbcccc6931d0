package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/auth"
	"github.com/vibewear/api/internal/client"
	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/internal/handler"
	"github.com/vibewear/api/internal/middleware"
	"github.com/vibewear/api/internal/server"
	"github.com/vibewear/api/internal/service"
	"github.com/vibewear/api/internal/store"
	ws "github.com/vibewear/api/internal/websocket"
)

const (
	testJWTSecret   = "test-secret-for-e2e"
	testProxySecret = "e2e-proxy-secret"
	testRedisAddr   = "localhost:6379"
	testRedisDB     = 15
	adminEmail      = "ops@vibewear.shop"
)

type testApp struct {
	app   *fiber.App
	redis *redis.Client
	log   store.GenerationLog
}

type appOptions struct {
	// openAI is the fake provider upstream; nil leaves the provider unconfigured.
	openAI         http.HandlerFunc
	designsPerDay  int
	analysisPerMin int
}

// newRedis connects to the local test database and skips when it is down.
func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: testRedisAddr, DB: testRedisDB})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("skipping: redis not available at %s: %v", testRedisAddr, err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test db: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

// setupApp wires the same components as cmd/server against Redis DB 15. The
// app is also served over HTTP so the design and analysis clients can reach
// the proxy endpoints the way they do in production.
func setupApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()

	rdb := newRedis(t)

	if opts.designsPerDay == 0 {
		opts.designsPerDay = 10000
	}
	if opts.analysisPerMin == 0 {
		opts.analysisPerMin = 10000
	}

	var served atomic.Pointer[fiber.App]
	self := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adaptor.FiberApp(served.Load())(w, r)
	}))
	t.Cleanup(self.Close)

	openAICfg := config.OpenAIConfig{ImageModel: "gpt-image-1", ChatModel: "gpt-4o", Timeout: 10 * time.Second}
	if opts.openAI != nil {
		upstream := httptest.NewServer(opts.openAI)
		t.Cleanup(upstream.Close)
		openAICfg.APIKey = "sk-test"
		openAICfg.BaseURL = upstream.URL
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test", LogLevel: "error"},
		Auth:   config.AuthConfig{AdminEmails: []string{adminEmail}},
		RateLimit: config.RateLimitConfig{
			DesignsPerDay:   opts.designsPerDay,
			AnalysisPerMin:  opts.analysisPerMin,
			CheckoutPerHour: 10000,
			UploadPerHour:   10000,
		},
		OpenAI: openAICfg,
		Proxy: config.ProxyConfig{
			DesignURL:   self.URL + "/proxy/generate-design",
			AnalysisURL: self.URL + "/proxy/analyze-image",
			Timeout:     10 * time.Second,
			Secret:      testProxySecret,
		},
		GenerationLog: config.GenerationLogConfig{Driver: "redis"},
	}

	log := zerolog.Nop()
	validate := validator.New()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: testRedisAddr, DB: testRedisDB})
	t.Cleanup(func() { asynqClient.Close() })

	hub := ws.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	openaiClient := client.NewOpenAIClient(&cfg.OpenAI)
	generationLog, err := store.Open(ctx, &cfg.GenerationLog, rdb)
	if err != nil {
		t.Fatalf("open generation log: %v", err)
	}

	authenticator := auth.NewAuthenticator(nil, testJWTSecret)
	designService := service.NewDesignService(client.NewDesignProxyClient(&cfg.Proxy), generationLog, log)
	analysisService := service.NewAnalysisService(client.NewAnalysisProxyClient(&cfg.Proxy), openaiClient.ChatModel(), log)

	app := server.New(server.Options{
		Config: cfg,
		Log:    log,
		Handlers: server.Handlers{
			Design:   handler.NewDesignHandler(designService, validate),
			Analysis: handler.NewAnalysisHandler(analysisService, validate),
			Proxy:    handler.NewProxyHandler(openaiClient, validate, log),
			Checkout: handler.NewCheckoutHandler(service.NewCheckoutService(rdb, asynqClient), validate),
			Upload:   handler.NewUploadHandler(service.NewUploadService(nil)),
			Waitlist: handler.NewWaitlistHandler(service.NewWaitlistService(rdb), validate),
			Auth:     handler.NewAuthHandler(authenticator),
			Admin:    handler.NewAdminHandler(generationLog),
		},
		Authenticator: authenticator,
		RateLimiter:   middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), log),
		Hub:           hub,
		Health: func(ctx context.Context) fiber.Map {
			return fiber.Map{
				"openai": openaiClient.IsConfigured(),
				"redis":  rdb.Ping(ctx).Err() == nil,
				"r2":     false,
				"auth":   true,
			}
		},
	})

	served.Store(app)

	return &testApp{app: app, redis: rdb, log: generationLog}
}

// fakeImageUpstream answers images/generations with a fixed URL. Request
// bodies are sent on bodies when it is non-nil and has room.
func fakeImageUpstream(bodies chan<- map[string]interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			http.NotFound(w, r)
			return
		}
		if bodies != nil {
			body := map[string]interface{}{}
			json.NewDecoder(r.Body).Decode(&body)
			select {
			case bodies <- body:
			default:
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[{"url":"https://cdn.example/fox.png","revised_prompt":"a red fox, bold lines"}]}`)
	}
}

func generateToken(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.IssueLegacyToken(testJWTSecret, "test-user-123", email, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

func doAuthRequest(t *testing.T, app *fiber.App, email, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t, email),
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	env, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	code, _ := env["code"].(string)
	return code
}

// loadEnvFile loads ../.env for the *_real tests; a missing file is fine.
func loadEnvFile(t *testing.T) {
	t.Helper()
	_ = godotenv.Load("../.env")
}
