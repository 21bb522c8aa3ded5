package domain

import "testing"

func TestReviewPolicy_Assess(t *testing.T) {
	p := DefaultReviewPolicy()

	tests := []struct {
		name  string
		score Score
		want  Assessment
	}{
		{"clean match", Score{Match: 1.6, Contradiction: 0}, AssessmentStandard},
		{"match at threshold", Score{Match: 1.0, Contradiction: 0.5}, AssessmentStandard},
		{"tension dominates", Score{Match: 2.0, Contradiction: 0.51}, AssessmentReview},
		{"atypical", Score{Match: 0.2, Contradiction: 0.9}, AssessmentReview},
		{"weak", Score{Match: 0.6, Contradiction: 0.1}, AssessmentWeakMatch},
		{"zero state", Score{}, AssessmentWeakMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Assess(tt.score); got != tt.want {
				t.Errorf("Assess(%+v) = %v, want %v", tt.score, got, tt.want)
			}
		})
	}
}

func TestAssessmentReason(t *testing.T) {
	for _, a := range []Assessment{AssessmentStandard, AssessmentReview, AssessmentWeakMatch} {
		if AssessmentReason(a) == "" {
			t.Errorf("empty reason for %s", a)
		}
	}
}
