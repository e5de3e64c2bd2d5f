package runner

import "testing"

func TestNewDefaultsToRscriptOnPath(t *testing.T) {
	r := New("")
	if r.RRScript != "Rscript" {
		t.Fatalf("expected default binary Rscript, got %q", r.RRScript)
	}
}

func TestNewHonorsOverride(t *testing.T) {
	r := New("/usr/local/bin/Rscript-4.3")
	if r.RRScript != "/usr/local/bin/Rscript-4.3" {
		t.Fatalf("expected override to stick, got %q", r.RRScript)
	}
}
