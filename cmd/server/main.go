// Command server runs the anti-scam chat HTTP API.
//
//	@title						Anti-scam Chat API
//	@version					1.0
//	@description				Screens chat messages for scams, crises and abuse and answers as a friendly assistant.
//	@BasePath					/
//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						X-Admin-Token
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/antiscam-chat-backend/docs"
	"github.com/tbourn/antiscam-chat-backend/internal/abuse"
	"github.com/tbourn/antiscam-chat-backend/internal/compose"
	"github.com/tbourn/antiscam-chat-backend/internal/config"
	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	httpapi "github.com/tbourn/antiscam-chat-backend/internal/http"
	"github.com/tbourn/antiscam-chat-backend/internal/i18n"
	"github.com/tbourn/antiscam-chat-backend/internal/kvstore"
	"github.com/tbourn/antiscam-chat-backend/internal/llm"
	"github.com/tbourn/antiscam-chat-backend/internal/observability"
	"github.com/tbourn/antiscam-chat-backend/internal/orchestrator"
	"github.com/tbourn/antiscam-chat-backend/internal/repo"
	"github.com/tbourn/antiscam-chat-backend/internal/services"
	"github.com/tbourn/antiscam-chat-backend/internal/sysutil"
	"github.com/tbourn/antiscam-chat-backend/internal/tonefilter"
	"github.com/tbourn/antiscam-chat-backend/internal/usage"
)

const (
	shutdownGrace = 15 * time.Second
	compactEvery  = 10 * time.Minute
)

func main() {
	if !sysutil.IsTruthy(os.Getenv("DOTENV_DISABLE")) {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()
	}

	cfg := config.MustLoad()
	sysutil.InstallLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)
	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath, repo.WithTracing())
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	store, err := kvstore.Open(ctx, kvstore.Options{
		Backend:       cfg.KV.Backend,
		RedisAddr:     cfg.KV.RedisAddr,
		RedisPassword: cfg.KV.RedisPassword,
		RedisDB:       cfg.KV.RedisDB,
		Prefix:        cfg.KV.Prefix,
		DB:            db,
	})
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.KV.Backend).Msg("open kv store")
	}

	msgs := i18n.MustNew(cfg.Language)
	client := llm.New(cfg.LLM)
	detectors := detect.NewSet(cfg.Detectors, client, msgs)
	composer := compose.New(client, tonefilter.New(), msgs, compose.WithTimeout(cfg.LLM.Timeout))
	limiter := usage.New(cfg.Usage, usage.NewKVRepository(store), msgs)
	guard := abuse.New(cfg.Abuse, store, msgs)

	assistant := services.NewAssistant(orchestrator.New(detectors), composer, limiter, guard, msgs)
	assistant.MaxMessageRunes = cfg.MaxMessageRunes

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.Version = version
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, httpapi.Deps{
		DB:        db,
		Assistant: assistant,
		Scam:      detectors.Scam,
		Usage:     limiter,
		Abuse:     guard,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("kv", cfg.KV.Backend).
			Str("llm", cfg.LLM.Provider).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		compactLoop(gctx, limiter)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := shutdownTracing(sctx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	if rs, ok := store.(*kvstore.Redis); ok {
		_ = rs.Client().Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}

// compactLoop prunes expired usage windows until ctx is done.
func compactLoop(ctx context.Context, l *usage.Limiter) {
	t := time.NewTicker(compactEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := l.Compact(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("usage compaction failed")
				continue
			}
			log.Debug().Int("records", n).Msg("usage compacted")
		}
	}
}
