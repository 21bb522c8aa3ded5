package domain

import "github.com/Harshitk-cp/epistate/internal/algebra"

// Score is the result of comparing an entity state with a reference.
type Score struct {
	Match         float64              `json:"match_score"`
	Contradiction float64              `json:"contradiction_score"`
	Raw           algebra.SplitComplex `json:"raw"`
}

type EntityScore struct {
	EntityID   string     `json:"entity_id"`
	VersionID  string     `json:"version_id"`
	Score      Score      `json:"score"`
	Assessment Assessment `json:"assessment"`
}

type Assessment string

const (
	AssessmentStandard  Assessment = "standard"
	AssessmentReview    Assessment = "review"
	AssessmentWeakMatch Assessment = "weak_match"
)

const (
	DefaultMinMatch         = 1.0
	DefaultMaxContradiction = 0.5
)

// ReviewPolicy turns raw scores into a triage decision. Scoring itself never decides.
type ReviewPolicy struct {
	MinMatch         float64 `yaml:"min_match" json:"min_match"`
	MaxContradiction float64 `yaml:"max_contradiction" json:"max_contradiction"`
}

func DefaultReviewPolicy() ReviewPolicy {
	return ReviewPolicy{
		MinMatch:         DefaultMinMatch,
		MaxContradiction: DefaultMaxContradiction,
	}
}

func (p ReviewPolicy) Assess(s Score) Assessment {
	switch {
	case s.Contradiction > p.MaxContradiction:
		return AssessmentReview
	case s.Match >= p.MinMatch:
		return AssessmentStandard
	default:
		return AssessmentWeakMatch
	}
}

func AssessmentReason(a Assessment) string {
	switch a {
	case AssessmentStandard:
		return "fits the reference closely with little epistemic tension"
	case AssessmentReview:
		return "uncertain or conflicting evidence interacts with the reference; flag for deeper review"
	default:
		return "confirmed evidence only weakly matches the reference"
	}
}
