package runtime

import (
	"strings"
	"testing"
)

func TestPreludeDefinesEveryContractHelper(t *testing.T) {
	for _, c := range Contracts {
		if !strings.Contains(Prelude, c.Name+" <- function") {
			t.Fatalf("prelude missing definition for contract helper %s", c.Name)
		}
	}
}

func TestPreludeMarksFailFastDiagnostic(t *testing.T) {
	if !strings.Contains(Prelude, "RRDIAG|kind=") {
		t.Fatalf("prelude missing machine-readable RRDIAG diagnostic line format")
	}
}
