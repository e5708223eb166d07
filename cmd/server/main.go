package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cleanestdotsol/viralreels/internal/config"
	"github.com/cleanestdotsol/viralreels/internal/ffmpeg"
	"github.com/cleanestdotsol/viralreels/internal/handlers"
	"github.com/cleanestdotsol/viralreels/internal/paths"
	"github.com/cleanestdotsol/viralreels/internal/pipeline"
	"github.com/cleanestdotsol/viralreels/internal/publish"
	"github.com/cleanestdotsol/viralreels/internal/storage"
	"github.com/cleanestdotsol/viralreels/internal/tts"
	"github.com/cleanestdotsol/viralreels/internal/version"
	"github.com/cleanestdotsol/viralreels/internal/worker"
)

func main() {
	cfg := config.Load()

	var out io.Writer = os.Stdout
	logLevel := zerolog.InfoLevel
	if cfg.AppEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(out).Level(logLevel).With().Timestamp().Logger()

	// Rendering shells out to ffmpeg and ffprobe; refuse to start without them.
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			log.Fatal().Str("binary", bin).Msg("required binary not found in PATH")
		}
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
	}
	defer db.Close()

	jobs := storage.NewJobRepository(db)
	scripts := storage.NewScriptRepository(db)

	// Rows left in processing by a previous run can never be claimed
	// again; put them back in the queue before the dispatcher starts.
	if n, err := jobs.RequeueInterrupted(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to requeue interrupted jobs")
	} else if n > 0 {
		log.Info().Int64("jobs", n).Msg("requeued jobs interrupted by previous shutdown")
	}

	resolver, err := paths.NewResolver(cfg.WorkDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.WorkDir).Msg("failed to resolve work directory")
	}

	synth := tts.NewClient(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.TTSVoiceID, cfg.TTSTimeout)
	encoder := ffmpeg.NewRunner(cfg.FFmpegTimeout)
	renderer := pipeline.New(synth, encoder, resolver, log)

	var publisher worker.Publisher
	fb := publish.NewClient(cfg.GraphBaseURL, cfg.GraphVersion, cfg.FacebookPageID, cfg.FacebookPageToken, cfg.ShareToStory, 5*time.Minute, log)
	if fb.Configured() {
		publisher = fb
	} else {
		log.Info().Msg("facebook credentials not set, publishing disabled")
	}

	processor := worker.New(jobs, scripts, renderer, publisher, cfg.TickInterval, cfg.MaxConcurrent, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor.Start(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	jobHandler := handlers.NewJobHandler(jobs, scripts)
	e.POST("/api/jobs", jobHandler.Create)
	e.GET("/api/jobs", jobHandler.List)
	e.GET("/api/jobs/stats", jobHandler.Stats)
	e.GET("/api/jobs/:id", jobHandler.Get)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	})

	go func() {
		log.Info().Str("version", version.Version).Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	// Waits for in-flight jobs to reach a terminal state.
	processor.Stop()
}
