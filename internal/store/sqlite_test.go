package store

import (
	"path/filepath"
	"testing"
)

func TestSQLiteJournal_RecordAndSeen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLiteJournal(WithSQLiteDSN(path))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer j.Close()

	fresh, err := j.Record("m1:user", "U1")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !fresh {
		t.Error("first record must be fresh")
	}

	fresh, err = j.Record("m1:user", "U1")
	if err != nil {
		t.Fatalf("duplicate record failed: %v", err)
	}
	if fresh {
		t.Error("duplicate record must not be fresh")
	}

	seen, err := j.Seen("m1:user")
	if err != nil {
		t.Fatalf("seen failed: %v", err)
	}
	if !seen {
		t.Error("recorded id must be seen")
	}
}

func TestNewSQLiteJournal_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteJournal(); err == nil {
		t.Error("expected error without a path")
	}
}
