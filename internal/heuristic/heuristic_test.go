package heuristic

import "testing"

func TestInferTrainingYear(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"PGY-2 Internal Medicine", "PGY-2"},
		{"pgy 3, Surgery", "PGY-3"},
		{"PGY–4", "PGY-4"},
		{"PGY5", "PGY-5"},
		{"PGY-7 does not exist", ""},
		{"PGY-12", ""},
		{"She is a second year resident", "PGY-2"},
		{"Fifth-Year Chief", "PGY-5"},
		{"first year", "PGY-1"},
		{"sixth year", ""},
		{"nothing here", ""},
	}
	for _, c := range cases {
		if got := InferTrainingYear(c.in); got != c.want {
			t.Fatalf("InferTrainingYear(%q)=%q, want %q", c.in, got, c.want)
		}
	}
}

func TestInferTrainingYear_PGYWinsOverOrdinal(t *testing.T) {
	if got := InferTrainingYear("first year, listed as PGY-3"); got != "PGY-3" {
		t.Fatalf("expected PGY marker to take precedence, got %q", got)
	}
}

func TestNormalizeTrainingYear(t *testing.T) {
	cases := map[string]string{
		"":             "",
		" pgy 2 ":      "PGY-2",
		"Third Year":   "PGY-3",
		"4":            "PGY-4",
		"Year 1":       "PGY-1",
		"Fellow":       "Fellow",
	}
	for in, want := range cases {
		if got := NormalizeTrainingYear(in); got != want {
			t.Fatalf("NormalizeTrainingYear(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestHasCredential(t *testing.T) {
	yes := []string{"Jane Smith, MD", "John Roe, M.D.", "Ann Lee DO", "Ravi Rao, MBBS", "a d.o. graduate", "Kim, md"}
	for _, s := range yes {
		if !HasCredential(s) {
			t.Fatalf("expected credential in %q", s)
		}
	}
	no := []string{"Jane Smith, PhD", "MDs and more", "Mohammed", "RN, BSN"}
	for _, s := range no {
		if HasCredential(s) {
			t.Fatalf("did not expect credential in %q", s)
		}
	}
}

func TestLooksLikeStaff(t *testing.T) {
	yes := []string{"Program Director of Cardiology", "program director", "Residency Coordinator", "Core Faculty", "Attending Physician", "Associate Professor", "DIO"}
	for _, s := range yes {
		if !LooksLikeStaff(s) {
			t.Fatalf("expected staff match in %q", s)
		}
	}
	no := []string{"Jane Smith, MD PGY-2", "Internal Medicine resident", "Dionne Ward, MD"}
	for _, s := range no {
		if LooksLikeStaff(s) {
			t.Fatalf("did not expect staff match in %q", s)
		}
	}
}
