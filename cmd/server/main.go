package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tarinagarwal/Skribbl-production/game"
	"github.com/tarinagarwal/Skribbl-production/migrations"
	"github.com/tarinagarwal/Skribbl-production/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("DEBUG") != "" {
		logger = logger.Level(zerolog.DebugLevel).Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	allowedEnv, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists {
		logger.Fatal().Msg("missing ALLOWED_ORIGINS")
	}
	allowedOrigins := strings.Split(allowedEnv, ",")

	pgURL, exists := os.LookupEnv("POSTGRES_URL")
	if !exists {
		logger.Fatal().Msg("missing POSTGRES_URL")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	if err := migrations.Migrate(pgURL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	repo, err := storage.NewPostgresRepo(context.Background(), pgURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres pool failed")
	}
	defer repo.Close()

	deps := game.RoomDeps{Store: repo, Words: repo, Log: logger}
	lobby := game.NewSessionLobby(deps, game.NewTickerGen())

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	r := CreateServer(allowedOrigins)
	game.NewGameHandler(lobby, deps).RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		logger.Info().Str("port", port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	lobby.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
