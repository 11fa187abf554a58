package scoring

import (
	"math"
	"strings"

	"github.com/spigell/resume-tailor/internal/profile"
	"github.com/spigell/resume-tailor/internal/synthesis"
	"github.com/spigell/resume-tailor/internal/task"
	"github.com/spigell/resume-tailor/internal/textutil"
)

// Weights for the overall score. Must sum to 1.0.
type Weights struct {
	Keyword       float64 `mapstructure:"keyword"`
	Qualification float64 `mapstructure:"qualification"`
	Structural    float64 `mapstructure:"structural"`
	Semantic      float64 `mapstructure:"semantic"`
}

// DefaultWeights are the documented defaults; configurable, not magic.
func DefaultWeights() Weights {
	return Weights{
		Keyword:       0.35,
		Qualification: 0.30,
		Structural:    0.20,
		Semantic:      0.15,
	}
}

// SubScores are the four 0-100 components of the match score.
type SubScores struct {
	KeywordCoverage       int `json:"keyword_coverage"`
	QualificationCoverage int `json:"qualification_coverage"`
	StructuralCompliance  int `json:"structural_compliance"`
	SemanticFit           int `json:"semantic_fit"`
}

// MatchScore is the quantitative fit between profile and posting. Overall is
// always the fixed weighted average of the sub-scores, rounded and clamped;
// it is never set independently.
type MatchScore struct {
	Overall         int       `json:"overall"`
	SubScores       SubScores `json:"sub_scores"`
	MissingKeywords []string  `json:"missing_keywords"`
	Gaps            []string  `json:"gaps"`
}

// Scorer computes MatchScore values. It reads the synthesized content and
// the role context only, never raw task outputs, so the arithmetic is the
// same whichever execution mode produced each task.
type Scorer struct {
	weights Weights
}

// New returns a Scorer. Weights that do not sum to 1 (within epsilon) are
// replaced by the defaults.
func New(w Weights) *Scorer {
	sum := w.Keyword + w.Qualification + w.Structural + w.Semantic
	if math.Abs(sum-1.0) > 1e-9 {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

// Score computes the deterministic match score.
func (s *Scorer) Score(snap *profile.Snapshot, role *profile.RoleContext, resume *synthesis.Resume, results map[string]*task.Result) *MatchScore {
	keyword, missing := s.keywordCoverage(role, resume)

	analysis := jobAnalysisOf(results)
	qualification, gaps := s.qualificationCoverage(snap, analysis)

	structural := s.structuralCompliance(snap, resume)

	semantic, present := semanticFit(results)
	if !present {
		semantic = roundInt(float64(keyword+qualification+structural) / 3.0)
	}

	sub := SubScores{
		KeywordCoverage:       keyword,
		QualificationCoverage: qualification,
		StructuralCompliance:  structural,
		SemanticFit:           semantic,
	}

	return &MatchScore{
		Overall:         s.Overall(sub),
		SubScores:       sub,
		MissingKeywords: missing,
		Gaps:            gaps,
	}
}

// Overall folds the sub-scores with the fixed weights, rounds to the nearest
// integer and clamps to [0, 100].
func (s *Scorer) Overall(sub SubScores) int {
	v := float64(sub.KeywordCoverage)*s.weights.Keyword +
		float64(sub.QualificationCoverage)*s.weights.Qualification +
		float64(sub.StructuralCompliance)*s.weights.Structural +
		float64(sub.SemanticFit)*s.weights.Semantic
	return clamp(roundInt(v), 0, 100)
}

// keywordCoverage extracts the posting's terms (case-normalized 1-grams with
// stop-words elided, plus repeated 2-grams) and measures the fraction found
// in the synthesized resume text. Missing terms keep the order in which the
// description first mentions them.
func (s *Scorer) keywordCoverage(role *profile.RoleContext, resume *synthesis.Resume) (int, []string) {
	terms := textutil.Terms(role.Description)
	if len(terms) == 0 {
		return 100, []string{}
	}

	haystack := textutil.Clean(resume.Markdown + " " + strings.Join(resume.Skills, " "))

	matched := 0
	missing := []string{}
	for _, term := range terms {
		if textutil.ContainsTerm(haystack, term) {
			matched++
		} else {
			missing = append(missing, term)
		}
	}
	return roundInt(float64(matched) / float64(len(terms)) * 100), missing
}

// qualificationCoverage checks each explicitly required qualification from
// the job analysis against the profile. Gap descriptions keep requirement
// order.
func (s *Scorer) qualificationCoverage(snap *profile.Snapshot, analysis *task.JobAnalysis) (int, []string) {
	if analysis == nil {
		return 0, []string{"job requirements unavailable"}
	}
	required := analysis.Qualifications.Required

	flat := snap.FlatText()
	eduText := strings.ToLower(joinEducation(snap.Education))

	total := 0
	satisfied := 0
	gaps := []string{}

	for _, skill := range required.MustHaveSkills {
		total++
		if textutil.ContainsTerm(textutil.Clean(flat), textutil.Clean(skill)) {
			satisfied++
		} else {
			gaps = append(gaps, "missing required skill: "+skill)
		}
	}
	for _, edu := range required.Education {
		total++
		if eduMatches(eduText, edu) {
			satisfied++
		} else {
			gaps = append(gaps, "missing education: "+edu)
		}
	}
	for _, cert := range required.Certifications {
		total++
		if strings.Contains(flat, strings.ToLower(cert)) {
			satisfied++
		} else {
			gaps = append(gaps, "missing certification: "+cert)
		}
	}

	if total == 0 {
		return 100, gaps
	}
	return roundInt(float64(satisfied) / float64(total) * 100), gaps
}

func joinEducation(entries []profile.Education) string {
	parts := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		parts = append(parts, e.Degree, e.FieldOfStudy, e.School)
	}
	return strings.Join(parts, " ")
}

// eduMatches treats any degree entry as satisfying a generic degree
// requirement; a specific field requirement must appear in the entry text.
func eduMatches(eduText, requirement string) bool {
	if eduText == "" {
		return false
	}
	req := strings.ToLower(requirement)
	if strings.Contains(req, "bachelor") || strings.Contains(req, "degree") {
		return true
	}
	return strings.Contains(eduText, req)
}

// structuralChecks is the fixed compliance checklist; each item carries an
// equal share of 100.
const maxBulletLength = 300

func (s *Scorer) structuralCompliance(snap *profile.Snapshot, resume *synthesis.Resume) int {
	checks := []bool{
		strings.TrimSpace(resume.Summary) != "",
		len(snap.Experience) > 0,
		len(snap.Education) > 0,
		len(resume.Skills) > 0,
		allExperienceHasBullets(snap.Experience),
		allBulletsWithin(snap.Experience, maxBulletLength),
	}
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return roundInt(float64(passed) / float64(len(checks)) * 100)
}

func allExperienceHasBullets(entries []profile.Experience) bool {
	for _, e := range entries {
		if len(e.Bullets) == 0 {
			return false
		}
	}
	return len(entries) > 0
}

func allBulletsWithin(entries []profile.Experience, limit int) bool {
	for _, e := range entries {
		for _, b := range e.Bullets {
			if len(b) > limit {
				return false
			}
		}
	}
	return true
}

// semanticFit returns the bounded alignment proxy from the optimization task
// when its backend supplied one.
func semanticFit(results map[string]*task.Result) (int, bool) {
	r, ok := results[task.NameContentOptimization]
	if !ok || r == nil {
		return 0, false
	}
	out, ok := r.Output.(*task.ContentOptimization)
	if !ok || out.AlignmentScore == nil {
		return 0, false
	}
	return clamp(*out.AlignmentScore, 0, 100), true
}

func jobAnalysisOf(results map[string]*task.Result) *task.JobAnalysis {
	r, ok := results[task.NameJobAnalysis]
	if !ok || r == nil {
		return nil
	}
	out, _ := r.Output.(*task.JobAnalysis)
	return out
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
