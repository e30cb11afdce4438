package candidate

import (
	"math"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Jane  Smith":        "jane smith",
		"  J. R.  Tolkien ":  "j r tolkien",
		"MARIA\tLOPEZ":       "maria lopez",
		"":                   "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestKey_IgnoresCaseAndPunctuation(t *testing.T) {
	a := Record{Name: "Maria Lopez", Specialty: "Pediatrics ", TrainingYear: "PGY-1"}
	b := Record{Name: "maria  lopez.", Specialty: "pediatrics", TrainingYear: "pgy-1"}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got %+v vs %+v", a.Key(), b.Key())
	}
	c := Record{Name: "Maria Lopez", Specialty: "Pediatrics", TrainingYear: "PGY-2"}
	if a.Key() == c.Key() {
		t.Fatalf("different training years must not collide")
	}
}

func TestClampConfidence(t *testing.T) {
	if got := ClampConfidence(0, false); got != DefaultConfidence {
		t.Fatalf("missing: got %v", got)
	}
	if got := ClampConfidence(math.NaN(), true); got != DefaultConfidence {
		t.Fatalf("NaN: got %v", got)
	}
	if got := ClampConfidence(1.7, true); got != 1 {
		t.Fatalf("above range: got %v", got)
	}
	if got := ClampConfidence(-0.2, true); got != 0 {
		t.Fatalf("below range: got %v", got)
	}
	if got := ClampConfidence(0.35, true); got != 0.35 {
		t.Fatalf("in range: got %v", got)
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("   ") != nil {
		t.Fatalf("blank should be nil")
	}
	p := StringPtr(" a@b.org ")
	if p == nil || *p != "a@b.org" {
		t.Fatalf("unexpected %v", p)
	}
}
