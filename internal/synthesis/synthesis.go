package synthesis

import (
	"fmt"
	"strings"

	"github.com/spigell/resume-tailor/internal/profile"
	"github.com/spigell/resume-tailor/internal/task"
)

// Resume is the fully-shaped merged output. Every field is always populated.
// DefaultedFields lists fields not produced by their designated source task:
// the substitute may be a structural default or the caller's own snapshot
// value. The contract for downstream consumers is "always fully shaped,
// possibly generic", no matter how many tasks fell back.
type Resume struct {
	Markdown        string            `json:"resume_md"`
	Summary         string            `json:"summary"`
	Skills          []string          `json:"skills"`
	KeywordCoverage KeywordCoverage   `json:"keyword_coverage"`
	TailoringNotes  []string          `json:"tailoring_notes"`
	InsightNotes    map[string]string `json:"insight_notes"`
	DefaultedFields []string          `json:"defaulted_fields"`
}

// KeywordCoverage lists the posting keywords the resume covers and the
// subset worth emphasizing.
type KeywordCoverage struct {
	Covered    []string `json:"covered"`
	Emphasized []string `json:"emphasized"`
}

// Structural defaults substituted when a source task omits a field.
const (
	defaultSummary     = "Motivated professional seeking to contribute relevant experience to this role."
	defaultInsightNote = "analysis unavailable"
)

// Synthesize merges the finalized task results into a Resume. It is pure and
// total: any combination of results, including every task on its fallback,
// yields a valid fully-populated Resume. Each output field has exactly one
// source task; a missing or invalid source value takes a documented default
// and the field is flagged.
func Synthesize(snap *profile.Snapshot, role *profile.RoleContext, results map[string]*task.Result) *Resume {
	r := &Resume{
		InsightNotes:    make(map[string]string, len(results)),
		DefaultedFields: []string{},
		TailoringNotes:  []string{},
	}

	analysis := outputAs[task.JobAnalysis](results, task.NameJobAnalysis)
	review := outputAs[task.QualityReview](results, task.NameQualityReview)
	optimization := outputAs[task.ContentOptimization](results, task.NameContentOptimization)
	calibration := outputAs[task.RoleCalibration](results, task.NameRoleCalibration)

	// Summary: sourced from content_optimization.
	switch {
	case optimization != nil && strings.TrimSpace(optimization.OptimizedSummary.Optimized) != "":
		r.Summary = optimization.OptimizedSummary.Optimized
	case strings.TrimSpace(snap.Summary) != "":
		r.Summary = snap.Summary
		r.DefaultedFields = append(r.DefaultedFields, "summary")
	default:
		r.Summary = defaultSummary
		r.DefaultedFields = append(r.DefaultedFields, "summary")
	}

	// Skills: sourced from content_optimization's prioritized ordering.
	if optimization != nil && len(optimization.PrioritizedSkills) > 0 {
		r.Skills = append([]string{}, optimization.PrioritizedSkills...)
	} else {
		r.Skills = append([]string{}, snap.Skills...)
		r.DefaultedFields = append(r.DefaultedFields, "skills")
	}

	// Keyword coverage: sourced from job_analysis.
	if analysis != nil {
		all := analysis.Keywords.All()
		r.KeywordCoverage = KeywordCoverage{
			Covered:    head(all, 20),
			Emphasized: head(all, 10),
		}
	} else {
		r.KeywordCoverage = KeywordCoverage{Covered: []string{}, Emphasized: []string{}}
		r.DefaultedFields = append(r.DefaultedFields, "keyword_coverage")
	}

	// Tailoring notes lead with the target role, then aggregate optimizer
	// suggestions and calibration issues.
	if role != nil && role.Title != "" {
		r.TailoringNotes = append(r.TailoringNotes,
			fmt.Sprintf("Tailored for %s at %s", role.Title, role.Company))
	}
	if optimization != nil {
		r.TailoringNotes = append(r.TailoringNotes, optimization.Suggestions...)
	}
	if calibration != nil {
		r.TailoringNotes = append(r.TailoringNotes, calibration.Tone.Issues...)
	}

	r.InsightNotes[task.NameJobAnalysis] = jobAnalysisNote(analysis)
	r.InsightNotes[task.NameQualityReview] = qualityNote(review)
	r.InsightNotes[task.NameContentOptimization] = optimizationNote(optimization)
	r.InsightNotes[task.NameRoleCalibration] = calibrationNote(calibration)
	// Fixed order keeps the defaulted-field list byte-stable across runs.
	for _, name := range []string{
		task.NameJobAnalysis, task.NameQualityReview,
		task.NameContentOptimization, task.NameRoleCalibration,
	} {
		if r.InsightNotes[name] == defaultInsightNote {
			r.DefaultedFields = append(r.DefaultedFields, "insight_notes."+name)
		}
	}

	r.Markdown = buildMarkdown(snap, r.Summary, r.Skills)

	return r
}

// outputAs extracts the typed output of a finalized result, nil when the
// task is missing or its output has an unexpected shape.
func outputAs[T any](results map[string]*task.Result, name string) *T {
	r, ok := results[name]
	if !ok || r == nil {
		return nil
	}
	out, ok := r.Output.(*T)
	if !ok {
		return nil
	}
	return out
}

func jobAnalysisNote(a *task.JobAnalysis) string {
	if a == nil {
		return defaultInsightNote
	}
	return fmt.Sprintf("%d hard skills, %d responsibilities, %s level",
		len(a.Keywords.HardSkills), len(a.Responsibilities), a.SeniorityLevel)
}

func qualityNote(q *task.QualityReview) string {
	if q == nil {
		return defaultInsightNote
	}
	return fmt.Sprintf("quality %d/100: %s", q.QualityScore.Overall, q.Summary)
}

func optimizationNote(o *task.ContentOptimization) string {
	if o == nil {
		return defaultInsightNote
	}
	return fmt.Sprintf("%d skills prioritized, %d to add",
		len(o.PrioritizedSkills), len(o.SkillsToAdd))
}

func calibrationNote(c *task.RoleCalibration) string {
	if c == nil {
		return defaultInsightNote
	}
	return fmt.Sprintf("tone %s -> %s (%d%% aligned)",
		c.Tone.CurrentLevel, c.Tone.TargetLevel, c.Tone.AlignmentScore)
}

// buildMarkdown renders the resume content blocks. Section order is fixed:
// header, summary, skills, experience, education, projects.
func buildMarkdown(snap *profile.Snapshot, summary string, skills []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", snap.Name)

	contact := make([]string, 0, 3)
	if snap.Email != "" {
		contact = append(contact, snap.Email)
	}
	if snap.Phone != "" {
		contact = append(contact, snap.Phone)
	}
	if snap.LinkedIn != "" {
		contact = append(contact, fmt.Sprintf("[LinkedIn](%s)", snap.LinkedIn))
	}
	if len(contact) > 0 {
		fmt.Fprintf(&b, "%s\n\n", strings.Join(contact, " | "))
	}

	b.WriteString("## Professional Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", summary)

	b.WriteString("## Skills\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.Join(skills, ", "))

	b.WriteString("## Work Experience\n\n")
	for _, exp := range snap.Experience {
		fmt.Fprintf(&b, "### %s\n", exp.Title)
		fmt.Fprintf(&b, "**%s** | %s\n\n", exp.Company, exp.Dates)
		for _, bullet := range exp.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
		b.WriteString("\n")
	}

	if len(snap.Education) > 0 {
		b.WriteString("## Education\n\n")
		for _, edu := range snap.Education {
			fmt.Fprintf(&b, "### %s\n", edu.Degree)
			fmt.Fprintf(&b, "**%s** | %s\n\n", edu.School, edu.Year)
		}
	}

	if len(snap.Projects) > 0 {
		b.WriteString("## Projects\n\n")
		for _, proj := range snap.Projects {
			fmt.Fprintf(&b, "### %s\n", proj.Name)
			if proj.Description != "" {
				fmt.Fprintf(&b, "%s\n", proj.Description)
			}
			for _, hl := range proj.Highlights {
				fmt.Fprintf(&b, "- %s\n", hl)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string{}, s...)
}
