package matching

import (
	"testing"

	"github.com/google/uuid"
)

func TestAlias_Stable(t *testing.T) {
	id := uuid.MustParse("6f1c2a3e-7b8d-4e9f-a0b1-c2d3e4f5a6b7")
	if Alias(id) != Alias(id) {
		t.Fatalf("alias is not stable for %s", id)
	}
	if Alias(id) == "" {
		t.Fatalf("empty alias")
	}
}

func TestPairAliases_Distinct(t *testing.T) {
	id := uuid.New()
	a1, a2 := pairAliases(id, id)
	if a1 == a2 {
		t.Fatalf("expected distinct aliases, got %q twice", a1)
	}
	if a2 != "Other"+a1 {
		t.Fatalf("unexpected second alias: got=%q want=%q", a2, "Other"+a1)
	}
}
