package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/resume-tailor/internal/backend"
	"github.com/spigell/resume-tailor/internal/task"
	"github.com/spigell/resume-tailor/internal/util"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// taskInstructions describes, per task, the analysis to perform and the
// exact response shape. The shapes mirror the task output schemas.
var taskInstructions = map[string]string{
	task.NameJobAnalysis: `Analyze the job description. Respond with:
{
  "keywords": {"hard_skills": [...], "soft_skills": [...], "industry_terms": [...]},
  "responsibilities": [{"description": "...", "keywords": [...]}],
  "qualifications": {
    "required": {"education": [...], "certifications": [...], "experience_years": "...", "must_have_skills": [...]},
    "preferred": {"education": [...], "certifications": [...], "nice_to_have_skills": [...]}
  },
  "seniority_level": "junior|mid|senior|executive"
}`,
	task.NameQualityReview: `Review the profile content for quality. Respond with:
{
  "cliches": [{"text": "...", "detail": "...", "suggestion": "...", "severity": "minor|important"}],
  "missing_metrics": [{"text": "...", "detail": "...", "suggestion": "...", "severity": "..."}],
  "repetitive_phrases": [{"text": "...", "detail": "...", "suggestion": "...", "severity": "..."}],
  "quality_score": {"overall": 0, "metrics": 0, "formatting": 0, "content": 0},
  "summary": "..."
}`,
	task.NameContentOptimization: `Rewrite the summary and reprioritize skills for the role,
using the job_analysis dependency output. Respond with:
{
  "optimized_summary": {"original": "...", "optimized": "...", "keywords_integrated": [...]},
  "prioritized_skills": [...],
  "skills_to_add": [...],
  "skills_to_emphasize": [...],
  "suggestions": [...],
  "alignment_score": 0
}`,
	task.NameRoleCalibration: `Calibrate the resume tone against the posting's seniority level
from the job_analysis dependency output. Respond with:
{
  "tone_assessment": {"current_level": "...", "target_level": "...", "alignment_score": 0, "issues": [...]},
  "vocabulary_adjustments": [{"original": "...", "calibrated": "...", "reason": "..."}],
  "suggested_verbs": [...]
}`,
}

// Invoker turns a Generator into per-task backend functions. It satisfies
// task.BackendProvider.
type Invoker struct {
	generator backend.Generator
	logger    *zap.Logger
	maxLogLen int
}

// NewInvoker creates an Invoker. maxLogLength bounds prompt/response
// previews in debug logs.
func NewInvoker(generator backend.Generator, logger *zap.Logger, maxLogLength int) *Invoker {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// TaskBackend returns the backend function for a known task name, nil for
// tasks this provider has no instructions for.
func (i *Invoker) TaskBackend(name string) task.BackendFunc {
	instructions, ok := taskInstructions[name]
	if !ok {
		return nil
	}
	return func(ctx context.Context, in task.Input) (map[string]any, error) {
		return i.invoke(ctx, name, instructions, in)
	}
}

func (i *Invoker) invoke(ctx context.Context, name, instructions string, in task.Input) (map[string]any, error) {
	inputJSON, err := marshalInput(in)
	if err != nil {
		return nil, fmt.Errorf("marshal task input: %w", err)
	}

	prompt := buildPrompt(name, instructions, inputJSON)

	i.logger.Debug("gemini generate content request",
		zap.String("task", name),
		zap.String("model", i.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("gemini generate content response",
		zap.String("task", name),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, i.maxLogLen)),
	)

	return parseResponse(raw)
}

// marshalInput serializes the profile, role and finalized dependency
// outputs for the prompt.
func marshalInput(in task.Input) (string, error) {
	deps := make(map[string]any, len(in.Deps))
	for name, res := range in.Deps {
		if res != nil {
			deps[name] = res.Output
		}
	}
	payload := map[string]any{
		"profile":      in.Profile,
		"role":         in.Role,
		"dependencies": deps,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func buildPrompt(name, instructions, inputJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Task: {{TASK_NAME}}\n{{TASK_INSTRUCTIONS}}\n\nInput:\n{{INPUT_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{TASK_NAME}}", name)
	prompt = strings.ReplaceAll(prompt, "{{TASK_INSTRUCTIONS}}", instructions)
	prompt = strings.ReplaceAll(prompt, "{{INPUT_JSON}}", inputJSON)
	return prompt
}

// parseResponse strips markdown fences and decodes the payload. The result
// is schema-validated by the scheduler; here we only require valid JSON
// with an object at the top.
func parseResponse(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	return data, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
