package contribution

import "math"

// Score weights. They sum to 100 so a user with every ratio at 1.0 scores
// exactly 100.
const (
	TechnicalWeight      = 40.0
	ProblemSolvingWeight = 25.0
	HelpWeight           = 15.0
	CompletionWeight     = 20.0
)

// Quality tiers a contribution score.
type Quality string

const (
	Low    Quality = "Low"
	Medium Quality = "Medium"
	High   Quality = "High"
)

// Score combines the per-user ratios into a weighted contribution score in
// [0, 100].
//
// Formula: 40*technical + 25*problem_solving + 15*help + 20*completion
func Score(technical, problemSolving, help, completion float64) float64 {
	return clamp(TechnicalWeight*technical +
		ProblemSolvingWeight*problemSolving +
		HelpWeight*help +
		CompletionWeight*completion)
}

// QualityFor returns the tier for a score: >=70 High, >=40 Medium, else Low.
func QualityFor(score float64) Quality {
	switch {
	case score >= 70:
		return High
	case score >= 40:
		return Medium
	default:
		return Low
	}
}

// IsActive reports whether a user made a substantive contribution.
func IsActive(messages, technical, tasksCompleted int) bool {
	if tasksCompleted >= 1 || technical >= 2 {
		return true
	}
	return ratio(technical, messages) >= 0.3 && messages >= 3
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
