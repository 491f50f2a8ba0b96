package app

import (
	"context"
	"net/http"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/config"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/delivery/httpd"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/proxy"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/readiness"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/service"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/service/integration"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/worker/queue"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type App struct {
	server   *http.Server
	gate     *readiness.Gate
	consumer *queue.Consumer
	logger   zerolog.Logger
	config   *config.Config
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	state := readiness.NewState()
	gate := readiness.NewGate(state, cfg.Ollama.URL, cfg.Ollama.Model, log)

	ollamaClient := integration.NewOllamaClient(
		cfg.Ollama.URL,
		cfg.Ollama.Model,
		cfg.Ollama.Timeout,
		state,
		log,
	)

	gatewayClient := integration.NewGatewayClient(
		cfg.Gateway.URL,
		cfg.Gateway.Timeout,
		log,
	)

	reviewService := service.NewReviewService(
		ollamaClient,
		gatewayClient,
		cfg.Review.Keywords,
		log,
	)

	consumer := queue.NewConsumer(cfg.RabbitMQ, reviewService, log)

	quizProxy, err := proxy.NewQuizProxy(cfg.Gateway.URL, log)
	if err != nil {
		return nil, err
	}

	handler := httpd.NewHandler(state, cfg.Gateway.URL, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router, quizProxy)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:   server,
		gate:     gate,
		consumer: consumer,
		logger:   log,
		config:   cfg,
	}, nil
}

// Run starts the readiness gate, the broker consumer and the HTTP server.
// The gate and consumer stop when ctx is cancelled; the server stops via
// Shutdown.
func (a *App) Run(ctx context.Context) error {
	go a.gate.Run(ctx)
	go a.consumer.Run(ctx)

	a.logger.Info().Msgf("Starting AI review service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down AI review service...")

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	a.logger.Info().Msg("AI review service stopped")
	return nil
}
