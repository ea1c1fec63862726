package model

import (
	"strings"
	"time"

	"articleforge/internal/article"
)

// UsecaseArticle is the pipeline variant this service implements.
const UsecaseArticle = "article"

// GenerateJob is the immutable submission record for one generation
// request. Created once at submission; never mutated afterwards.
type GenerateJob struct {
	IdempotencyKey string            `json:"idempotency_key"`
	Usecase        string            `json:"usecase"`
	Version        string            `json:"version"`
	Inputs         map[string]string `json:"inputs"`
}

// Topic returns the mandatory topic input.
func (j GenerateJob) Topic() string {
	return strings.TrimSpace(j.Inputs["topic"])
}

// SourceList returns the comma-separated "sources" input as a slice.
func (j GenerateJob) SourceList() []string {
	raw := strings.TrimSpace(j.Inputs["sources"])
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// QCReport is the QC stage verdict stored on the job.
type QCReport struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

// JobState is the mutable progress record for one job, keyed by the
// job's idempotency key and owned exclusively by the pipeline. Attempts
// never resets once the job exists.
type JobState struct {
	ID            string                   `json:"id"`
	Job           GenerateJob              `json:"job"`
	Stage         Stage                    `json:"stage"`
	Brief         string                   `json:"brief,omitempty"`
	Outline       []string                 `json:"outline,omitempty"`
	Draft         article.Draft            `json:"draft,omitempty"`
	Markdown      string                   `json:"markdown,omitempty"`
	QC            *QCReport                `json:"qc,omitempty"`
	Quality       *article.QualityMetrics  `json:"quality,omitempty"`
	Badge         *article.Badge           `json:"badge,omitempty"`
	Attempts      int                      `json:"attempts"`
	FailureReason string                   `json:"failure_reason,omitempty"`
	Cancelled     bool                     `json:"cancelled,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// Key returns the idempotency key the state is stored under.
func (s *JobState) Key() string {
	return s.Job.IdempotencyKey
}

// Terminal reports whether the job can make no further progress.
func (s *JobState) Terminal() bool {
	return s.Stage.Terminal()
}
