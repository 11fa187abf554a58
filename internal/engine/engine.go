package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/resume-tailor/internal/audit"
	"github.com/spigell/resume-tailor/internal/logger"
	"github.com/spigell/resume-tailor/internal/profile"
	"github.com/spigell/resume-tailor/internal/scheduler"
	"github.com/spigell/resume-tailor/internal/scoring"
	"github.com/spigell/resume-tailor/internal/synthesis"
	"github.com/spigell/resume-tailor/internal/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine ties the pipeline together: run the task graph, record every
// finalized task in the audit store, synthesize the resume and score it.
type Engine struct {
	scheduler *scheduler.Scheduler
	scorer    *scoring.Scorer
	store     audit.Store
	logger    *zap.Logger
}

// Outcome is the full product of one invocation.
type Outcome struct {
	SubmissionID uuid.UUID               `json:"submission_id"`
	Resume       *synthesis.Resume       `json:"resume"`
	Score        *scoring.MatchScore     `json:"score"`
	TaskModes    []audit.TaskMode        `json:"task_modes"`
	Results      map[string]*task.Result `json:"-"`
}

// New assembles an engine. The scheduler and scorer are required; a nil store
// falls back to the in-memory one, a nil logger to a no-op.
func New(sched *scheduler.Scheduler, scorer *scoring.Scorer, store audit.Store, log *zap.Logger) (*Engine, error) {
	if sched == nil {
		return nil, errors.New("scheduler is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if store == nil {
		store = audit.NewMemoryStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{scheduler: sched, scorer: scorer, store: store, logger: log}, nil
}

// Run executes one submission end to end. A run either produces a complete
// Outcome or fails as a whole; partial products are never returned. Audit
// records are written once per finalized task, in deterministic graph order.
func (e *Engine) Run(ctx context.Context, snap *profile.Snapshot, role *profile.RoleContext) (*Outcome, error) {
	if snap == nil {
		return nil, errors.New("profile snapshot is required")
	}
	if role == nil {
		return nil, errors.New("role context is required")
	}

	submissionID := uuid.New()
	log := logger.WithSubmission(e.logger, submissionID.String())

	log.Info("starting submission",
		zap.String("company", role.Company),
		zap.String("title", role.Title),
	)

	results, err := e.scheduler.Run(ctx, snap, role)
	if err != nil {
		return nil, fmt.Errorf("running task graph: %w", err)
	}

	for _, name := range e.scheduler.Graph().TopologicalOrder() {
		res, ok := results[name]
		if !ok {
			return nil, fmt.Errorf("task %q missing from results", name)
		}
		if err := e.store.Append(ctx, audit.NewRecord(submissionID, res)); err != nil {
			return nil, fmt.Errorf("appending audit record for task %q: %w", name, err)
		}
	}

	resume := synthesis.Synthesize(snap, role, results)
	score := e.scorer.Score(snap, role, resume, results)

	modes, err := e.store.LatestModes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading task modes: %w", err)
	}

	log.Info("submission complete",
		zap.Int("overall_score", score.Overall),
		zap.Int("defaulted_fields", len(resume.DefaultedFields)),
	)

	return &Outcome{
		SubmissionID: submissionID,
		Resume:       resume,
		Score:        score,
		TaskModes:    modes,
		Results:      results,
	}, nil
}
