package task

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/resume-tailor/internal/profile"
)

func testSnapshot() *profile.Snapshot {
	return &profile.Snapshot{
		Name:    "Jane Roe",
		Email:   "jane@example.com",
		Summary: "Backend engineer.",
		Skills:  []string{"Python", "Kubernetes"},
		Experience: []profile.Experience{
			{
				Title:   "Software Engineer",
				Company: "Acme",
				Dates:   "2020 - 2024",
				Bullets: []string{
					"Improved latency by 40%",
					"Maintained internal services for the platform team",
				},
			},
		},
		Education: []profile.Education{
			{Degree: "B.Sc.", FieldOfStudy: "Computer Science", School: "State University", Year: "2019"},
		},
	}
}

func testRole() *profile.RoleContext {
	return &profile.RoleContext{
		Company: "Initech",
		Title:   "Senior Software Engineer",
		Description: "We are looking for a senior Python developer with AWS and Docker experience. " +
			"5+ years required. You will design scalable services and lead code reviews.",
	}
}

func TestFallbackJobAnalysis(t *testing.T) {
	t.Parallel()

	out, err := FallbackJobAnalysis(Input{Profile: testSnapshot(), Role: testRole()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	analysis := out.(*JobAnalysis)

	if want := []string{"python", "aws", "docker"}; !reflect.DeepEqual(analysis.Keywords.HardSkills, want) {
		t.Fatalf("expected hard skills %v, got %v", want, analysis.Keywords.HardSkills)
	}
	if analysis.SeniorityLevel != LevelSenior {
		t.Fatalf("expected senior level, got %q", analysis.SeniorityLevel)
	}
	if analysis.Qualifications.Required.ExperienceYears != "5" {
		t.Fatalf("expected 5 years, got %q", analysis.Qualifications.Required.ExperienceYears)
	}
	if len(analysis.Responsibilities) == 0 {
		t.Fatal("expected at least one extracted responsibility")
	}
	if len(analysis.Qualifications.Required.MustHaveSkills) != 3 {
		t.Fatalf("expected all hard skills as must-have, got %v",
			analysis.Qualifications.Required.MustHaveSkills)
	}
}

func TestFallbackJobAnalysisDeterministic(t *testing.T) {
	t.Parallel()

	in := Input{Profile: testSnapshot(), Role: testRole()}

	first, err := FallbackJobAnalysis(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := FallbackJobAnalysis(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("fallback output differs between runs:\n%s\n%s", a, b)
	}
}

func TestFallbackQualityReview(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.Summary = "Team player and hard worker."

	out, err := FallbackQualityReview(Input{Profile: snap, Role: testRole()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	review := out.(*QualityReview)

	if len(review.Cliches) != 2 {
		t.Fatalf("expected 2 cliches, got %d", len(review.Cliches))
	}
	if len(review.MissingMetrics) != 1 {
		t.Fatalf("expected 1 bullet without metrics, got %d", len(review.MissingMetrics))
	}
	if review.QualityScore.Metrics != 50 {
		t.Fatalf("expected metrics score 50, got %d", review.QualityScore.Metrics)
	}
	// 85 minus 2 cliches times 5, minus 10 for metrics below 70.
	if review.QualityScore.Overall != 65 {
		t.Fatalf("expected overall 65, got %d", review.QualityScore.Overall)
	}
	if !strings.Contains(review.Summary, "1 bullets without metrics") {
		t.Fatalf("unexpected summary: %q", review.Summary)
	}
}

func TestFallbackContentOptimization(t *testing.T) {
	t.Parallel()

	analysis := &JobAnalysis{
		Keywords: Keywords{HardSkills: []string{"python", "aws"}},
	}
	in := Input{
		Profile: testSnapshot(),
		Role:    testRole(),
		Deps: map[string]*Result{
			NameJobAnalysis: {Name: NameJobAnalysis, Status: StatusSucceeded, Output: analysis},
		},
	}

	out, err := FallbackContentOptimization(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opt := out.(*ContentOptimization)

	if want := []string{"Python", "Kubernetes"}; !reflect.DeepEqual(opt.PrioritizedSkills, want) {
		t.Fatalf("expected matched skills first %v, got %v", want, opt.PrioritizedSkills)
	}
	if want := []string{"aws"}; !reflect.DeepEqual(opt.SkillsToAdd, want) {
		t.Fatalf("expected skills to add %v, got %v", want, opt.SkillsToAdd)
	}
	if !strings.Contains(opt.OptimizedSummary.Optimized, "Experienced with python.") {
		t.Fatalf("expected folded keyword in summary, got %q", opt.OptimizedSummary.Optimized)
	}
	if opt.AlignmentScore != nil {
		t.Fatal("fallback must not set the alignment score")
	}
}

func TestFallbackContentOptimizationMissingDependency(t *testing.T) {
	t.Parallel()

	_, err := FallbackContentOptimization(Input{Profile: testSnapshot(), Role: testRole()})
	if err == nil {
		t.Fatal("expected error without job_analysis output")
	}
}

func TestFallbackRoleCalibration(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.Experience[0].Bullets = []string{
		"Developed the billing pipeline",
		"Implemented rate limiting",
	}

	analysis := &JobAnalysis{SeniorityLevel: LevelSenior}
	in := Input{
		Profile: snap,
		Role:    testRole(),
		Deps: map[string]*Result{
			NameJobAnalysis: {Name: NameJobAnalysis, Status: StatusSucceeded, Output: analysis},
		},
	}

	out, err := FallbackRoleCalibration(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cal := out.(*RoleCalibration)

	if cal.Tone.CurrentLevel != LevelMid {
		t.Fatalf("expected current level mid, got %q", cal.Tone.CurrentLevel)
	}
	if cal.Tone.TargetLevel != LevelSenior {
		t.Fatalf("expected target level senior, got %q", cal.Tone.TargetLevel)
	}
	if cal.Tone.AlignmentScore != 60 {
		t.Fatalf("expected alignment 60 on mismatch, got %d", cal.Tone.AlignmentScore)
	}
	if len(cal.Tone.Issues) != 1 {
		t.Fatalf("expected one tone issue, got %v", cal.Tone.Issues)
	}
	if cal.SuggestedVerbs[0] != "led" {
		t.Fatalf("expected senior verbs suggested, got %v", cal.SuggestedVerbs)
	}
	if cal.VocabularyAdjustments[0].Calibrated != "Led" {
		t.Fatalf("unexpected adjustment: %+v", cal.VocabularyAdjustments[0])
	}
}

func TestFallbackRoleCalibrationMatchingLevel(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.Experience[0].Bullets = []string{
		"Led the migration to Kubernetes",
		"Mentored four engineers",
	}

	analysis := &JobAnalysis{SeniorityLevel: LevelSenior}
	in := Input{
		Profile: snap,
		Role:    testRole(),
		Deps: map[string]*Result{
			NameJobAnalysis: {Name: NameJobAnalysis, Status: StatusSucceeded, Output: analysis},
		},
	}

	out, err := FallbackRoleCalibration(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cal := out.(*RoleCalibration)
	if cal.Tone.AlignmentScore != 100 || len(cal.Tone.Issues) != 0 {
		t.Fatalf("expected full alignment, got %+v", cal.Tone)
	}
}
