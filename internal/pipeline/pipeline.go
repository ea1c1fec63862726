// Package pipeline drives a GenerateJob through the ordered stages
// BRIEF → OUTLINE → DRAFT_JSON → RENDER_MD → QC → PUBLISH, with
// per-stage acceptance gates, a lifetime attempt ceiling, and
// idempotency-key submission semantics.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"articleforge/internal/article"
	"articleforge/internal/generate"
	"articleforge/internal/model"
	"articleforge/internal/ports"
)

// DefaultStageTimeout bounds a single generation call. A timeout counts
// as a stage failure and consumes one attempt.
const DefaultStageTimeout = 30 * time.Second

// Config tunes one pipeline instance.
type Config struct {
	Retry        RetryConfig
	StageTimeout time.Duration
}

// DefaultConfig returns the recommended settings.
func DefaultConfig() Config {
	return Config{
		Retry:        DefaultRetryConfig(),
		StageTimeout: DefaultStageTimeout,
	}
}

// Pipeline owns every JobState for the lifetime of its jobs. It is safe
// for concurrent use across distinct idempotency keys; per-key
// serialization comes from the broker dispatching each key to exactly
// one worker.
type Pipeline struct {
	gen   ports.Generator
	store ports.StateStore
	cfg   Config
	log   *slog.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration)
}

// New wires a pipeline to its collaborators.
func New(gen ports.Generator, store ports.StateStore, cfg Config, log *slog.Logger) *Pipeline {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		gen:   gen,
		store: store,
		cfg:   cfg,
		log:   log,
		sleep: sleepCtx,
	}
}

// Submit registers a job under its idempotency key. When the key already
// has an active or completed record the existing job ID is returned with
// created=false; the caller decides whether that is worth mentioning.
// Exactly-once is per key, not per payload.
func (p *Pipeline) Submit(ctx context.Context, job model.GenerateJob) (jobID string, created bool, err error) {
	if strings.TrimSpace(job.IdempotencyKey) == "" {
		return "", false, fmt.Errorf("idempotency key is required")
	}
	if job.Topic() == "" {
		return "", false, fmt.Errorf("inputs must contain a topic")
	}

	now := time.Now().UTC()
	state := &model.JobState{
		ID:        uuid.NewString(),
		Job:       job,
		Stage:     model.StageBrief,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.store.Create(ctx, state); err != nil {
		if errors.Is(err, ports.ErrExists) {
			existing, getErr := p.store.Get(ctx, job.IdempotencyKey)
			if getErr != nil {
				return "", false, fmt.Errorf("load existing job %q: %w", job.IdempotencyKey, getErr)
			}
			p.log.Info("duplicate submission collapsed onto existing job",
				"key", job.IdempotencyKey, "job_id", existing.ID)
			return existing.ID, false, nil
		}
		return "", false, fmt.Errorf("create job %q: %w", job.IdempotencyKey, err)
	}

	p.log.Info("job submitted", "key", job.IdempotencyKey, "job_id", state.ID, "topic", job.Topic())
	return state.ID, true, nil
}

// Cancel marks a job cancelled. Best-effort: it prevents the next stage
// dispatch but does not preempt an in-flight generation call.
func (p *Pipeline) Cancel(ctx context.Context, key string) error {
	state, err := p.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if state.Terminal() {
		return nil
	}
	state.Cancelled = true
	state.UpdatedAt = time.Now().UTC()
	return p.store.Put(ctx, state)
}

// Run advances the job until it reaches a terminal stage, pausing with
// backoff between retries. Returns ErrRetryExhausted (wrapped) when the
// attempt ceiling moved the job to FAILED.
func (p *Pipeline) Run(ctx context.Context, key string) error {
	for {
		state, err := p.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if state.Terminal() {
			return nil
		}

		err = p.Advance(ctx, key)
		if err == nil {
			continue
		}
		if errors.Is(err, model.ErrRetryExhausted) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		state, getErr := p.store.Get(ctx, key)
		if getErr != nil {
			return getErr
		}
		if state.Terminal() {
			return nil
		}
		p.sleep(ctx, p.cfg.Retry.Delay(state.Attempts))
	}
}

// Advance executes exactly one attempt of the job's current stage. On
// acceptance the job moves to the next stage; on failure the lifetime
// attempt counter is incremented and, at the ceiling, the job is moved
// to FAILED with the last errors recorded.
func (p *Pipeline) Advance(ctx context.Context, key string) error {
	state, err := p.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if state.Terminal() {
		return nil
	}
	if state.Cancelled {
		return p.failTerminal(ctx, state, "cancelled before stage dispatch")
	}

	stageErr := p.executeStage(ctx, state)
	if stageErr == nil {
		next, ok := state.Stage.Next()
		if !ok {
			return fmt.Errorf("stage %s has no successor", state.Stage)
		}
		state.Stage = next
		state.UpdatedAt = time.Now().UTC()
		p.log.Info("stage accepted", "key", key, "stage", state.Stage, "attempts", state.Attempts)
		return p.store.Put(ctx, state)
	}

	state.Attempts++
	state.UpdatedAt = time.Now().UTC()
	p.log.Warn("stage failed", "key", key, "stage", state.Stage,
		"attempts", state.Attempts, "error", stageErr)

	if state.Attempts >= p.cfg.Retry.MaxAttempts {
		failedStage := state.Stage
		reason := stageErr.Error()
		var vf *model.ValidationFailure
		if errors.As(stageErr, &vf) {
			reason = strings.Join(vf.Violations, "; ")
		}
		if err := p.failTerminal(ctx, state, reason); err != nil {
			return err
		}
		return fmt.Errorf("job %q failed at %s: %w", key, failedStage, model.ErrRetryExhausted)
	}

	if err := p.store.Put(ctx, state); err != nil {
		return err
	}
	return stageErr
}

// executeStage runs the current stage's transformation and acceptance
// check, mutating state fields in memory only.
func (p *Pipeline) executeStage(ctx context.Context, state *model.JobState) error {
	switch state.Stage {
	case model.StageBrief:
		out, err := p.generateStage(ctx, state)
		if err != nil {
			return err
		}
		state.Brief = strings.TrimSpace(out)
		return nil

	case model.StageOutline:
		out, err := p.generateStage(ctx, state)
		if err != nil {
			return err
		}
		outline := generate.ParseOutline(out)
		if len(outline) == 0 {
			return fmt.Errorf("outline stage: %w: empty outline", model.ErrGenerationMalformed)
		}
		state.Outline = outline
		return nil

	case model.StageDraftJSON:
		out, err := p.generateStage(ctx, state)
		if err != nil {
			return err
		}
		raw := generate.ExtractJSON(out)
		var probe article.StructuredArticle
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return fmt.Errorf("draft stage: %w: %v", model.ErrGenerationMalformed, err)
		}
		state.Draft = article.NewDraft([]byte(raw))
		return nil

	case model.StageRenderMD:
		a, err := state.Draft.Parse()
		if err != nil {
			return fmt.Errorf("render stage: %w: %v", model.ErrGenerationMalformed, err)
		}
		state.Markdown = article.RenderMarkdown(a)
		return nil

	case model.StageQC:
		return p.runQC(state)

	default:
		return fmt.Errorf("stage %s is not executable", state.Stage)
	}
}

// runQC validates the draft, records quality metrics and the confidence
// badge, and accepts only a passing validation.
func (p *Pipeline) runQC(state *model.JobState) error {
	a, err := state.Draft.Parse()
	if err != nil {
		return fmt.Errorf("qc stage: %w: %v", model.ErrGenerationMalformed, err)
	}

	validation := article.Validate(a)
	metrics := article.Score(a, validation)
	state.QC = &model.QCReport{OK: validation.IsValid, Errors: validation.Errors}
	state.Quality = &metrics

	confidence := float64(metrics.StructureScore+metrics.ContentRichness+metrics.ReadabilityScore) / 300
	badge := article.Classify(confidence, state.Job.SourceList())
	state.Badge = &badge

	if !validation.IsValid {
		return &model.ValidationFailure{Violations: validation.Errors}
	}
	state.Draft.MarkValidated(a)
	return nil
}

// generateStage calls the generation service under the stage deadline
// and applies the non-empty acceptance check shared by the text stages.
func (p *Pipeline) generateStage(ctx context.Context, state *model.JobState) (string, error) {
	prompt, promptCtx := generate.StagePrompt(state.Stage, state)
	ctx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	defer cancel()

	out, err := p.gen.Generate(ctx, prompt, promptCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("stage %s: %w", state.Stage, model.ErrGenerationTimeout)
		}
		return "", fmt.Errorf("stage %s: %w", state.Stage, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("stage %s: %w: empty response", state.Stage, model.ErrGenerationMalformed)
	}
	return out, nil
}

func (p *Pipeline) failTerminal(ctx context.Context, state *model.JobState, reason string) error {
	state.Stage = model.StageFailed
	state.FailureReason = reason
	state.UpdatedAt = time.Now().UTC()
	p.log.Error("job failed", "key", state.Key(), "attempts", state.Attempts, "reason", reason)
	return p.store.Put(ctx, state)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
