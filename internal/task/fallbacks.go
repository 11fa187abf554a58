package task

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/resume-tailor/internal/textutil"
)

// The fallbacks below are deterministic, side-effect-free, rule-based
// substitutes for the backend implementations. Same inputs always produce
// byte-identical outputs, so every collection is built in a fixed order.

// knownHardSkills is the fixed vocabulary the job_analysis fallback scans
// for. Matching is whole-word against the cleaned description; order here
// decides output order.
var knownHardSkills = []string{
	"python", "java", "javascript", "typescript", "react", "nodejs", "node",
	"angular", "vue", "sql", "nosql", "postgresql", "mysql", "aws", "azure",
	"gcp", "docker", "kubernetes", "terraform", "git", "linux",
	"machine learning", "deep learning", "nlp", "data science", "analytics",
	"api", "rest", "graphql", "grpc", "microservices", "devops", "agile",
	"scrum", "kafka", "redis", "elasticsearch",
}

var knownSoftSkills = []string{
	"leadership", "communication", "collaboration", "teamwork",
	"problem-solving", "analytical", "creative", "organized", "mentoring",
}

var responsibilityVerbs = []string{
	"develop", "design", "implement", "manage", "lead", "collaborate",
	"build", "create", "analyze", "optimize", "maintain",
}

var experienceYearsRe = regexp.MustCompile(`(\d+)\+?\s*years?`)

// FallbackJobAnalysis extracts keywords, responsibilities and qualifications
// from the job description with fixed vocabularies and sentence rules.
func FallbackJobAnalysis(in Input) (any, error) {
	jd := textutil.Clean(in.Role.Description)
	title := strings.ToLower(in.Role.Title)

	var hard []string
	for _, skill := range knownHardSkills {
		if textutil.ContainsTerm(jd, skill) {
			hard = append(hard, skill)
		}
	}

	var soft []string
	for _, skill := range knownSoftSkills {
		if textutil.ContainsTerm(jd, skill) {
			soft = append(soft, skill)
		}
	}

	responsibilities := extractResponsibilities(in.Role.Description)

	seniority := seniorityFromTitle(title)

	years := "2-5"
	if m := experienceYearsRe.FindStringSubmatch(jd); m != nil {
		years = m[1]
	}

	mustHave := hard
	if len(mustHave) > 5 {
		mustHave = mustHave[:5]
	}
	var niceToHave []string
	if len(hard) > 5 {
		niceToHave = hard[5:]
		if len(niceToHave) > 5 {
			niceToHave = niceToHave[:5]
		}
	}

	return &JobAnalysis{
		Keywords: Keywords{
			HardSkills:    append([]string{}, hard...),
			SoftSkills:    append([]string{}, soft...),
			IndustryTerms: []string{},
		},
		Responsibilities: responsibilities,
		Qualifications: Qualifications{
			Required: RequiredQualifications{
				Education:       []string{"Bachelor's degree"},
				Certifications:  []string{},
				ExperienceYears: years,
				MustHaveSkills:  append([]string{}, mustHave...),
			},
			Preferred: PreferredQualifications{
				Education:        []string{"Master's degree"},
				Certifications:   []string{},
				NiceToHaveSkills: append([]string{}, niceToHave...),
			},
		},
		SeniorityLevel: seniority,
	}, nil
}

func seniorityFromTitle(title string) string {
	switch {
	case containsAny(title, "director", "vp", "head", "chief"):
		return LevelExecutive
	case containsAny(title, "senior", "lead", "principal", "staff"):
		return LevelSenior
	case containsAny(title, "junior", "entry", "associate", "intern"):
		return LevelJunior
	default:
		return LevelMid
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func extractResponsibilities(description string) []Responsibility {
	sentences := strings.Split(strings.ToLower(description), ".")
	out := make([]Responsibility, 0, 10)
	seen := make(map[string]struct{})
	for _, verb := range responsibilityVerbs {
		perVerb := 0
		for _, sentence := range sentences {
			if perVerb >= 3 || len(out) >= 10 {
				break
			}
			sentence = strings.TrimSpace(sentence)
			if sentence == "" || !textutil.ContainsTerm(textutil.Clean(sentence), verb) {
				continue
			}
			if _, dup := seen[sentence]; dup {
				continue
			}
			seen[sentence] = struct{}{}
			out = append(out, Responsibility{Description: sentence, Keywords: []string{verb}})
			perVerb++
		}
	}
	return out
}

var clichePhrases = []string{
	"team player", "hard worker", "fast learner", "detail-oriented",
	"self-motivated", "go-getter", "think outside the box", "synergy",
}

var metricsRe = regexp.MustCompile(`\d+%?|\d+\+|\d+,\d+`)

// FallbackQualityReview flags cliches, bullets without metrics and
// repetitive wording, and derives the quality sub-scores from the counts.
func FallbackQualityReview(in Input) (any, error) {
	allText := strings.ToLower(strings.Join(
		append([]string{in.Profile.Summary}, in.Profile.Bullets()...), " "))

	cliches := make([]Issue, 0)
	for _, phrase := range clichePhrases {
		if strings.Contains(allText, phrase) {
			cliches = append(cliches, Issue{
				Text:       phrase,
				Detail:     "overused buzzword",
				Suggestion: "replace with a specific achievement",
				Severity:   "important",
			})
		}
	}

	missing := make([]Issue, 0)
	totalBullets := 0
	for _, exp := range in.Profile.Experience {
		for _, bullet := range exp.Bullets {
			totalBullets++
			if len(bullet) > 20 && !metricsRe.MatchString(bullet) {
				missing = append(missing, Issue{
					Text:       truncate(bullet, 100),
					Detail:     "no quantifiable metrics",
					Suggestion: "add numbers, percentages or timeframes",
					Severity:   "important",
				})
			}
		}
	}

	repetitive := repeatedWords(allText)

	withMetrics := totalBullets - len(missing)
	metricsScore := 100
	if totalBullets > 0 {
		metricsScore = withMetrics * 100 / totalBullets
	}

	overall := 85 - len(cliches)*5
	if metricsScore < 70 {
		overall -= 10
	}
	if overall < 0 {
		overall = 0
	}

	return &QualityReview{
		Cliches:           cliches,
		MissingMetrics:    missing,
		RepetitivePhrases: repetitive,
		QualityScore: QualityScore{
			Overall:    overall,
			Metrics:    metricsScore,
			Formatting: 90,
			Content:    80,
		},
		Summary: fmt.Sprintf("%d bullets without metrics, %d cliched phrases",
			len(missing), len(cliches)),
	}, nil
}

func repeatedWords(text string) []Issue {
	counts := make(map[string]int)
	for _, word := range strings.Fields(text) {
		if len(word) > 5 {
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for word, n := range counts {
		if n > 4 {
			words = append(words, word)
		}
	}
	sort.Strings(words)

	out := make([]Issue, 0, len(words))
	for _, word := range words {
		out = append(out, Issue{
			Text:       word,
			Detail:     fmt.Sprintf("used %d times", counts[word]),
			Suggestion: "use synonyms for variety",
			Severity:   "minor",
		})
	}
	return out
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// FallbackContentOptimization reorders the profile's skills so those matching
// the job analysis come first and folds one missing top skill into the
// summary. Requires the finalized job_analysis result.
func FallbackContentOptimization(in Input) (any, error) {
	analysis, ok := in.Dep(NameJobAnalysis).(*JobAnalysis)
	if !ok {
		return nil, fmt.Errorf("content_optimization: job_analysis output missing")
	}

	hard := analysis.Keywords.HardSkills
	summary := in.Profile.Summary

	optimized := summary
	var integrated []string
	if summary != "" {
		for _, skill := range hard {
			if len(integrated) >= 3 {
				break
			}
			integrated = append(integrated, skill)
		}
		for _, skill := range hard {
			if !strings.Contains(strings.ToLower(summary), strings.ToLower(skill)) {
				optimized = fmt.Sprintf("%s Experienced with %s.", summary, skill)
				break
			}
		}
	}

	var matched, unmatched []string
	for _, skill := range in.Profile.Skills {
		if skillMatchesAny(skill, hard) {
			matched = append(matched, skill)
		} else {
			unmatched = append(unmatched, skill)
		}
	}
	prioritized := append(append([]string{}, matched...), unmatched...)

	var toAdd []string
	for _, hs := range hard {
		if len(toAdd) >= 5 {
			break
		}
		if !skillListedIn(hs, in.Profile.Skills) {
			toAdd = append(toAdd, hs)
		}
	}

	emphasize := matched
	if len(emphasize) > 5 {
		emphasize = emphasize[:5]
	}

	suggestions := make([]string, 0, 2)
	if len(toAdd) > 0 {
		suggestions = append(suggestions,
			"Add these relevant skills from the posting: "+strings.Join(head(toAdd, 3), ", "))
	}
	if len(matched) > 0 {
		suggestions = append(suggestions,
			"Emphasize "+strings.Join(head(matched, 3), ", ")+" in your experience bullets")
	}

	return &ContentOptimization{
		OptimizedSummary: OptimizedSummary{
			Original:           summary,
			Optimized:          optimized,
			KeywordsIntegrated: integrated,
		},
		PrioritizedSkills: prioritized,
		SkillsToAdd:       toAdd,
		SkillsToEmphasize: append([]string{}, emphasize...),
		Suggestions:       suggestions,
	}, nil
}

func skillMatchesAny(skill string, hard []string) bool {
	lower := strings.ToLower(skill)
	for _, hs := range hard {
		hsLower := strings.ToLower(hs)
		if strings.Contains(lower, hsLower) || strings.Contains(hsLower, lower) {
			return true
		}
	}
	return false
}

func skillListedIn(skill string, skills []string) bool {
	lower := strings.ToLower(skill)
	for _, s := range skills {
		if strings.Contains(strings.ToLower(s), lower) {
			return true
		}
	}
	return false
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// levelVerbs maps seniority levels to characteristic action verbs. Detection
// walks the list in order; first level with two verb hits wins.
var levelVerbs = []struct {
	level string
	verbs []string
}{
	{LevelJunior, []string{"assisted", "supported", "contributed", "learned", "participated", "helped"}},
	{LevelMid, []string{"developed", "implemented", "delivered", "improved", "built", "created"}},
	{LevelSenior, []string{"led", "architected", "drove", "mentored", "optimized", "designed"}},
	{LevelExecutive, []string{"directed", "transformed", "established", "spearheaded", "envisioned", "pioneered"}},
}

// FallbackRoleCalibration compares the resume's verb register with the
// posting's seniority level from job_analysis.
func FallbackRoleCalibration(in Input) (any, error) {
	analysis, ok := in.Dep(NameJobAnalysis).(*JobAnalysis)
	if !ok {
		return nil, fmt.Errorf("role_calibration: job_analysis output missing")
	}
	target := analysis.SeniorityLevel
	if target == "" {
		target = LevelMid
	}

	text := strings.ToLower(strings.Join(
		append([]string{in.Profile.Summary}, in.Profile.Bullets()...), " "))

	current := LevelMid
	for _, entry := range levelVerbs {
		hits := 0
		for _, verb := range entry.verbs {
			if strings.Contains(text, verb) {
				hits++
			}
		}
		if hits >= 2 {
			current = entry.level
			break
		}
	}

	alignment := 100
	issues := []string{}
	if current != target {
		alignment = 60
		issues = append(issues,
			fmt.Sprintf("language reads as %s level, target is %s", current, target))
	}

	targetVerbs := levelVerbs[1].verbs
	for _, entry := range levelVerbs {
		if entry.level == target {
			targetVerbs = entry.verbs
			break
		}
	}

	return &RoleCalibration{
		Tone: ToneAssessment{
			CurrentLevel:   current,
			TargetLevel:    target,
			AlignmentScore: alignment,
			Issues:         issues,
		},
		VocabularyAdjustments: []VocabularyAdjustment{
			{
				Original:   "Worked on",
				Calibrated: capitalize(targetVerbs[0]),
				Reason:     fmt.Sprintf("%q reads closer to %s level", targetVerbs[0], target),
			},
		},
		SuggestedVerbs: append([]string{}, targetVerbs...),
	}, nil
}
