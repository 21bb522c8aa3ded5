package triples

import (
	"errors"
	"strings"
	"testing"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/google/go-cmp/cmp"
)

const clinicalSample = `
<Patient123>  <hasDiagnosis>           <Hypertension>
<Patient123>  <hasSymptom>             <Fatigue>
<Patient123>  <possibleDiagnosis>      <Diabetes>

<Patient456>  <hasDiagnosis>           <Diabetes>
<Patient456>  <possibleDiagnosis>      <Hyperthyroidism>

# late observation
<Patient123>  <conflictingDiagnosis>   <Anemia>
`

func TestParse_GroupsBySubjectInFirstSeenOrder(t *testing.T) {
	groups, err := ParseString(clinicalSample)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	want := []Group{
		{Subject: "Patient123", Facts: []domain.Fact{
			{EntityID: "Patient123", Predicate: "hasDiagnosis", Object: "Hypertension"},
			{EntityID: "Patient123", Predicate: "hasSymptom", Object: "Fatigue"},
			{EntityID: "Patient123", Predicate: "possibleDiagnosis", Object: "Diabetes"},
			{EntityID: "Patient123", Predicate: "conflictingDiagnosis", Object: "Anemia"},
		}},
		{Subject: "Patient456", Facts: []domain.Fact{
			{EntityID: "Patient456", Predicate: "hasDiagnosis", Object: "Diabetes"},
			{EntityID: "Patient456", Predicate: "possibleDiagnosis", Object: "Hyperthyroidism"},
		}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_StatementLayout(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"blank lines only", "\n\n   \n", 0},
		{"two per line", "<a> <p> <x> <a> <p> <y>", 2},
		{"spanning lines", "<a> <p>\n<x>", 1},
		{"without brackets", "a p x", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := ParseString(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := len(Flatten(groups)); got != tt.want {
				t.Errorf("facts = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParse_IncompleteStatement(t *testing.T) {
	_, err := ParseString("<a> <p> <x>\n\n<b> <hasSymptom>\n")
	if !errors.Is(err, ErrIncompleteStatement) {
		t.Fatalf("expected ErrIncompleteStatement, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name line 3: %v", err)
	}
}

func TestParse_EmptyTerm(t *testing.T) {
	_, err := ParseString("<a> <> <x>")
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("expected empty term error on line 1, got %v", err)
	}
}

func TestFlatten(t *testing.T) {
	groups, err := ParseString(clinicalSample)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	facts := Flatten(groups)
	if len(facts) != 6 {
		t.Fatalf("len = %d, want 6", len(facts))
	}
	if facts[4].EntityID != "Patient456" {
		t.Errorf("facts[4].EntityID = %s, want Patient456", facts[4].EntityID)
	}
}
