package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fauzanhilmi/vocalis/pkg/cache"
	"github.com/fauzanhilmi/vocalis/pkg/config"
	"github.com/fauzanhilmi/vocalis/pkg/gateway"
	"github.com/fauzanhilmi/vocalis/pkg/logging"
	"github.com/fauzanhilmi/vocalis/pkg/metrics"
	"github.com/fauzanhilmi/vocalis/pkg/pipeline"
	"github.com/fauzanhilmi/vocalis/pkg/runner"
	"github.com/fauzanhilmi/vocalis/pkg/server"
	sttpkg "github.com/fauzanhilmi/vocalis/pkg/stt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("logger initialized",
		slog.String("level", cfg.LogLevel),
		slog.String("format", cfg.LogFormat))

	sttCfg, err := cfg.STT()
	if err != nil {
		logger.Error("stt settings invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	ttsCfg, err := cfg.TTS()
	if err != nil {
		logger.Error("tts settings invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	groqCfg, err := cfg.Groq()
	if err != nil {
		logger.Error("groq settings invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	openaiCfg, err := cfg.OpenAI()
	if err != nil {
		logger.Error("openai settings invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	searchCfg, err := cfg.Search()
	if err != nil {
		logger.Error("search settings invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	embedCfg, err := cfg.Embeddings()
	if err != nil {
		logger.Error("embeddings settings invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gw := gateway.New(
		gateway.BuildGenerators(groqCfg, openaiCfg, logger),
		gateway.BuildSynthesizer(ttsCfg, logger),
	)
	semanticCache := cache.NewSemantic(
		cache.WithThreshold(cfg.Cache.SimilarityThreshold),
		cache.WithTTL(time.Duration(cfg.Cache.TTLSeconds)*time.Second),
	)
	run := pipeline.NewRunner(gw,
		gateway.BuildSearch(searchCfg, logger),
		gateway.BuildEmbedder(embedCfg, logger),
		semanticCache,
	)

	sttFactory := func() sttpkg.Stream {
		if sttCfg.APIKey == "" {
			return sttpkg.NewDisabled()
		}
		return sttpkg.NewDeepgram(sttCfg, uuid.NewString())
	}

	observer := metrics.NewLatencyObserver(logger)
	srv := server.New(server.Config{
		Addr:              cfg.Server.Addr,
		HeartbeatInterval: time.Duration(cfg.Server.HeartbeatIntervalMS) * time.Millisecond,
	}, run, sttFactory, observer)

	if cfg.Prewarm {
		gw.Prewarm(context.Background())
	}

	life := runner.NewLifecycleRunner(drainer{srv: srv}, runner.Hooks{
		OnStart: func() {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("server failed", slog.String("error", err.Error()))
					os.Exit(1)
				}
			}()
		},
	}, 10*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := life.Run(ctx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

type drainer struct {
	srv *server.Server
}

func (d drainer) Drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	return d.srv.Shutdown(ctx)
}
