// Package worker runs the queue processor: a periodic dispatcher that
// claims pending jobs from the store and executes the rendering pipeline
// for each under a global concurrency ceiling.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanestdotsol/viralreels/internal/models"
	"github.com/cleanestdotsol/viralreels/internal/publish"
)

// JobStore is the durable queue the processor dispatches from. All
// cross-worker state lives behind these operations.
type JobStore interface {
	Claim(ctx context.Context, limit int) ([]models.Job, error)
	Complete(ctx context.Context, id, filePath string) error
	Fail(ctx context.Context, id, message string) error
	RecordPublish(ctx context.Context, id, postID, storyID string) error
	RecordPublishError(ctx context.Context, id, message string) error
}

// ScriptStore loads the narration source for a claimed job.
type ScriptStore interface {
	GetByID(ctx context.Context, id string) (*models.Script, error)
}

// Renderer executes the rendering pipeline for one job and returns the
// finished video path.
type Renderer interface {
	Run(ctx context.Context, job models.Job, script *models.Script) (string, error)
}

// Publisher hands a finished video to the external publishing
// collaborator.
type Publisher interface {
	Publish(ctx context.Context, videoPath string, script *models.Script) (*publish.Result, error)
}

// Processor claims pending jobs on a fixed interval and starts one
// worker goroutine per claimed job, never blocking on their completion.
// It keeps no job state in memory: a restart simply resumes claiming
// from the store.
type Processor struct {
	jobs      JobStore
	scripts   ScriptStore
	renderer  Renderer
	publisher Publisher

	interval time.Duration
	ceiling  int
	running  atomic.Int64

	stop chan struct{}
	wg   sync.WaitGroup
	log  zerolog.Logger
}

// New creates a Processor. publisher may be nil when publishing is not
// configured.
func New(jobs JobStore, scripts ScriptStore, renderer Renderer, publisher Publisher, interval time.Duration, ceiling int, log zerolog.Logger) *Processor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 2
	}
	return &Processor{
		jobs:      jobs,
		scripts:   scripts,
		renderer:  renderer,
		publisher: publisher,
		interval:  interval,
		ceiling:   ceiling,
		stop:      make(chan struct{}),
		log:       log,
	}
}

// Start begins the dispatch loop.
func (p *Processor) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
	p.log.Info().Dur("interval", p.interval).Int("ceiling", p.ceiling).Msg("queue processor started")
}

// Stop stops claiming new jobs and waits for in-flight jobs to finish.
func (p *Processor) Stop() {
	close(p.stop)
	p.wg.Wait()
	p.log.Info().Msg("queue processor stopped")
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick claims up to the remaining capacity under the concurrency
// ceiling and dispatches one goroutine per claimed job. It returns
// after dispatching; a long-running job never delays the next tick.
func (p *Processor) Tick(ctx context.Context) {
	limit := p.ceiling - int(p.running.Load())
	if limit <= 0 {
		return
	}

	claimed, err := p.jobs.Claim(ctx, limit)
	if err != nil {
		p.log.Error().Err(err).Msg("claim failed")
		return
	}

	for _, job := range claimed {
		p.running.Add(1)
		p.wg.Add(1)
		go func(job models.Job) {
			defer p.wg.Done()
			defer p.running.Add(-1)
			p.process(ctx, job)
		}(job)
	}
}

// Running returns the number of in-flight pipeline executions.
func (p *Processor) Running() int {
	return int(p.running.Load())
}

// process drives one claimed job to a terminal status. No error or
// panic escapes into the dispatch loop; one job's failure must never
// prevent the next tick from claiming others.
func (p *Processor) process(ctx context.Context, job models.Job) {
	log := p.log.With().Str("job_id", job.ID).Str("script_id", job.ScriptID).Logger()
	start := time.Now()

	// Store writes run on a detached context: a shutdown cancel that
	// interrupts a stage must not also suppress recording the outcome,
	// or the claimed row stays in processing forever.
	recCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("pipeline panicked")
			p.failJob(recCtx, job.ID, fmt.Sprintf("internal error: %v", r))
			jobsProcessed.WithLabelValues("panic").Inc()
		}
	}()

	log.Info().Msg("processing job")

	script, err := p.scripts.GetByID(recCtx, job.ScriptID)
	if err != nil {
		p.failJob(recCtx, job.ID, fmt.Sprintf("load script: %v", err))
		jobsProcessed.WithLabelValues("failed").Inc()
		return
	}
	if script == nil {
		p.failJob(recCtx, job.ID, fmt.Sprintf("script %s not found", job.ScriptID))
		jobsProcessed.WithLabelValues("failed").Inc()
		return
	}

	videoPath, err := p.renderer.Run(ctx, job, script)
	if err != nil {
		log.Error().Err(err).Msg("job failed")
		p.failJob(recCtx, job.ID, err.Error())
		jobsProcessed.WithLabelValues("failed").Inc()
		jobDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		return
	}

	if err := p.jobs.Complete(recCtx, job.ID, videoPath); err != nil {
		log.Error().Err(err).Msg("failed to mark job completed")
		return
	}
	log.Info().Str("video", videoPath).Dur("took", time.Since(start)).Msg("job completed")
	jobsProcessed.WithLabelValues("completed").Inc()
	jobDuration.WithLabelValues("completed").Observe(time.Since(start).Seconds())

	// Publishing is a secondary outcome: a transient platform error must
	// not mask a successful, reusable render.
	if job.Publish && p.publisher != nil {
		res, err := p.publisher.Publish(recCtx, videoPath, script)
		if err != nil {
			log.Warn().Err(err).Msg("publish failed")
			if rErr := p.jobs.RecordPublishError(recCtx, job.ID, err.Error()); rErr != nil {
				log.Error().Err(rErr).Msg("failed to record publish error")
			}
			return
		}
		if err := p.jobs.RecordPublish(recCtx, job.ID, res.PostID, res.StoryID); err != nil {
			log.Error().Err(err).Msg("failed to record publish result")
			return
		}
		log.Info().Str("post_id", res.PostID).Msg("video published")
	}
}

func (p *Processor) failJob(ctx context.Context, id, message string) {
	if err := p.jobs.Fail(ctx, id, message); err != nil {
		p.log.Error().Err(err).Str("job_id", id).Msg("failed to mark job failed")
	}
}
