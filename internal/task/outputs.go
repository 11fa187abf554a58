package task

// Task names. The roster is fixed; the scheduler only knows specs.
const (
	NameJobAnalysis         = "job_analysis"
	NameQualityReview       = "quality_review"
	NameContentOptimization = "content_optimization"
	NameRoleCalibration     = "role_calibration"
)

// Seniority levels recognized by job analysis and role calibration.
const (
	LevelJunior    = "junior"
	LevelMid       = "mid"
	LevelSenior    = "senior"
	LevelExecutive = "executive"
)

// JobAnalysis is the output of the job_analysis task.
type JobAnalysis struct {
	Keywords         Keywords         `json:"keywords"`
	Responsibilities []Responsibility `json:"responsibilities"`
	Qualifications   Qualifications   `json:"qualifications"`
	SeniorityLevel   string           `json:"seniority_level"`
}

// Keywords groups the terms extracted from a job description.
type Keywords struct {
	HardSkills    []string `json:"hard_skills"`
	SoftSkills    []string `json:"soft_skills"`
	IndustryTerms []string `json:"industry_terms"`
}

// All returns hard skills, soft skills and industry terms in that order.
func (k Keywords) All() []string {
	out := make([]string, 0, len(k.HardSkills)+len(k.SoftSkills)+len(k.IndustryTerms))
	out = append(out, k.HardSkills...)
	out = append(out, k.SoftSkills...)
	out = append(out, k.IndustryTerms...)
	return out
}

// Responsibility is one duty extracted from the job description.
type Responsibility struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Qualifications splits the posting's requirements into required and
// preferred groups.
type Qualifications struct {
	Required  RequiredQualifications  `json:"required"`
	Preferred PreferredQualifications `json:"preferred"`
}

type RequiredQualifications struct {
	Education       []string `json:"education"`
	Certifications  []string `json:"certifications"`
	ExperienceYears string   `json:"experience_years"`
	MustHaveSkills  []string `json:"must_have_skills"`
}

type PreferredQualifications struct {
	Education        []string `json:"education"`
	Certifications   []string `json:"certifications"`
	NiceToHaveSkills []string `json:"nice_to_have_skills"`
}

// QualityReview is the output of the quality_review task.
type QualityReview struct {
	Cliches           []Issue      `json:"cliches"`
	MissingMetrics    []Issue      `json:"missing_metrics"`
	RepetitivePhrases []Issue      `json:"repetitive_phrases"`
	QualityScore      QualityScore `json:"quality_score"`
	Summary           string       `json:"summary"`
}

// Issue is a single flagged problem in the resume content.
type Issue struct {
	Text       string `json:"text"`
	Detail     string `json:"detail"`
	Suggestion string `json:"suggestion"`
	Severity   string `json:"severity"`
}

// QualityScore is the quality_review sub-score breakdown.
type QualityScore struct {
	Overall    int `json:"overall"`
	Metrics    int `json:"metrics"`
	Formatting int `json:"formatting"`
	Content    int `json:"content"`
}

// ContentOptimization is the output of the content_optimization task.
type ContentOptimization struct {
	OptimizedSummary  OptimizedSummary `json:"optimized_summary"`
	PrioritizedSkills []string         `json:"prioritized_skills"`
	SkillsToAdd       []string         `json:"skills_to_add"`
	SkillsToEmphasize []string         `json:"skills_to_emphasize"`
	Suggestions       []string         `json:"suggestions"`
	// AlignmentScore is a 0-100 semantic-fit proxy the backend may supply.
	// The fallback never sets it.
	AlignmentScore *int `json:"alignment_score,omitempty"`
}

// OptimizedSummary carries the rewritten professional summary.
type OptimizedSummary struct {
	Original           string   `json:"original"`
	Optimized          string   `json:"optimized"`
	KeywordsIntegrated []string `json:"keywords_integrated"`
}

// RoleCalibration is the output of the role_calibration task.
type RoleCalibration struct {
	Tone                  ToneAssessment         `json:"tone_assessment"`
	VocabularyAdjustments []VocabularyAdjustment `json:"vocabulary_adjustments"`
	SuggestedVerbs        []string               `json:"suggested_verbs"`
}

// ToneAssessment compares the resume's current seniority register with the
// posting's target level.
type ToneAssessment struct {
	CurrentLevel   string   `json:"current_level"`
	TargetLevel    string   `json:"target_level"`
	AlignmentScore int      `json:"alignment_score"`
	Issues         []string `json:"issues"`
}

// VocabularyAdjustment is one suggested phrase replacement.
type VocabularyAdjustment struct {
	Original   string `json:"original"`
	Calibrated string `json:"calibrated"`
	Reason     string `json:"reason"`
}
