package task

// BackendProvider supplies an optional backend implementation per task.
// A nil provider, or a nil return for a given name, leaves the task on its
// fallback path.
type BackendProvider interface {
	TaskBackend(name string) BackendFunc
}

// DefaultSpecs returns the fixed task roster. The graph is two levels deep:
// job_analysis and quality_review have no dependencies; content_optimization
// and role_calibration consume the finalized job_analysis result.
func DefaultSpecs(provider BackendProvider) []Spec {
	backendFor := func(name string) BackendFunc {
		if provider == nil {
			return nil
		}
		return provider.TaskBackend(name)
	}

	return []Spec{
		{
			Name: NameJobAnalysis,
			Schema: Schema{Fields: []Field{
				{Name: "keywords", Kind: KindObject, Required: true},
				{Name: "responsibilities", Kind: KindList, Required: true},
				{Name: "qualifications", Kind: KindObject, Required: true},
				{Name: "seniority_level", Kind: KindString, Required: true},
			}},
			Decode: func(raw map[string]any) (any, error) {
				return decodeAs[JobAnalysis](raw)
			},
			Fallback: FallbackJobAnalysis,
			Backend:  backendFor(NameJobAnalysis),
		},
		{
			Name: NameQualityReview,
			Schema: Schema{Fields: []Field{
				{Name: "cliches", Kind: KindList, Required: false},
				{Name: "missing_metrics", Kind: KindList, Required: false},
				{Name: "repetitive_phrases", Kind: KindList, Required: false},
				{Name: "quality_score", Kind: KindObject, Required: true},
				{Name: "summary", Kind: KindString, Required: false},
			}},
			Decode: func(raw map[string]any) (any, error) {
				return decodeAs[QualityReview](raw)
			},
			Fallback: FallbackQualityReview,
			Backend:  backendFor(NameQualityReview),
		},
		{
			Name:      NameContentOptimization,
			DependsOn: []string{NameJobAnalysis},
			Schema: Schema{Fields: []Field{
				{Name: "optimized_summary", Kind: KindObject, Required: true},
				{Name: "prioritized_skills", Kind: KindList, Required: true},
				{Name: "skills_to_add", Kind: KindList, Required: false},
				{Name: "skills_to_emphasize", Kind: KindList, Required: false},
				{Name: "suggestions", Kind: KindList, Required: false},
				{Name: "alignment_score", Kind: KindNumber, Required: false},
			}},
			Decode: func(raw map[string]any) (any, error) {
				return decodeAs[ContentOptimization](raw)
			},
			Fallback: FallbackContentOptimization,
			Backend:  backendFor(NameContentOptimization),
		},
		{
			Name:      NameRoleCalibration,
			DependsOn: []string{NameJobAnalysis},
			Schema: Schema{Fields: []Field{
				{Name: "tone_assessment", Kind: KindObject, Required: true},
				{Name: "vocabulary_adjustments", Kind: KindList, Required: false},
				{Name: "suggested_verbs", Kind: KindList, Required: false},
			}},
			Decode: func(raw map[string]any) (any, error) {
				return decodeAs[RoleCalibration](raw)
			},
			Fallback: FallbackRoleCalibration,
			Backend:  backendFor(NameRoleCalibration),
		},
	}
}
