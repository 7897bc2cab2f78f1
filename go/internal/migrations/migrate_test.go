package migrations

import (
	"strings"
	"testing"
)

func TestSchemaDeclaresLedgerConstraints(t *testing.T) {
	s := Schema()
	for _, want := range []string{
		"UNIQUE (match_id, unlock_step, source_user_id)",
		"CHECK (unlocked_step BETWEEN 0 AND 3)",
		"CHECK (user1_id <> user2_id)",
		"pg_notify('match_outbox_events'",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("schema missing %q", want)
		}
	}
}
