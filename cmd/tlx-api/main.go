// README: Entry point; loads config, wires module services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"tlx/internal/config"
	httptransport "tlx/internal/http"
	"tlx/internal/infra"
	"tlx/internal/modules/dialogue"
	"tlx/internal/modules/dropoff"
	"tlx/internal/modules/intake"
	"tlx/internal/modules/kb"
	"tlx/internal/modules/language"
	"tlx/internal/modules/responder"
	"tlx/internal/modules/uploads"
	"tlx/internal/service"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// AI provider. OpenAI doubles as embedder, language refiner and
	// translator; Gemini only generates.
	var provider responder.Provider
	var openAI *responder.OpenAI
	switch cfg.Responder.Provider {
	case "gemini":
		gem, err := responder.NewGemini(ctx, cfg.Responder.GeminiKey, cfg.Responder.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("gemini init failed")
		}
		defer gem.Close()
		provider = gem
	default:
		if cfg.Responder.OpenAIKey != "" {
			openAI = responder.NewOpenAI(cfg.Responder.OpenAIKey, cfg.Responder.OpenAIModel, cfg.Responder.EmbedModel)
			provider = openAI
		} else {
			log.Warn().Msg("no OpenAI key; generative replies disabled")
		}
	}

	var refiner language.Refiner
	if cfg.Language.UseLLM && openAI != nil {
		refiner = openAI
	}
	detector := language.NewDetector(refiner, log)

	var embedder kb.Embedder
	if cfg.KB.UseEmbedding && openAI != nil {
		embedder = openAI
	}
	kbSvc := kb.NewService(cfg.KB.CSVPath, embedder, log)
	if _, err := kbSvc.Load(); err != nil {
		log.Warn().Err(err).Str("path", cfg.KB.CSVPath).Msg("knowledge base load failed; starting empty")
	}

	var sessions dialogue.Store = dialogue.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		sessions = dialogue.NewRedisStore(infra.NewRedis(cfg.Redis.Addr))
	}

	var archiver dialogue.Archiver
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("db init failed")
		}
		defer dbPool.Close()
		archiver = intake.NewStore(dbPool)
	}

	var finder dialogue.DropoffFinder
	if cfg.Maps.APIKey != "" {
		finder, err = dropoff.NewService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("maps init failed")
		}
	}

	machine := dialogue.NewMachine(sessions, archiver, finder, log)
	resp := responder.NewService(provider, log)
	if cfg.Responder.PromptFile != "" {
		resp.UsePromptFile(cfg.Responder.PromptFile, cfg.Responder.PromptReload)
	}
	assistant := service.NewAssistant(detector, machine, kbSvc, resp, log)

	up, err := uploads.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("upload dir init failed")
	}

	var translator responder.Translator
	if cfg.KB.Translate && openAI != nil {
		translator = openAI
	}

	handler := httptransport.NewRouter(httptransport.ServerDeps{
		Assistant:  assistant,
		KB:         kbSvc,
		Detector:   detector,
		Responder:  resp,
		Translator: translator,
		Uploads:    up,
		Log:        log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server exited")
	}
}
