package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStore_RecordRecentClear(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer func() { _ = store.Close() }()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	searches := []struct {
		query string
		kind  Kind
		count int
	}{
		{"9788960861234", KindISBN, 1},
		{"데미안", KindTitle, 3},
		{"세 가지", KindKeyword, 12},
	}
	for _, s := range searches {
		if err := store.Record(s.query, s.kind, s.count); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Query != "세 가지" || entries[0].Kind != KindKeyword || entries[0].ResultCount != 12 {
		t.Errorf("unexpected newest entry: %+v", entries[0])
	}
	if entries[1].Query != "데미안" {
		t.Errorf("expected second entry 데미안, got %q", entries[1].Query)
	}
	if !entries[0].SearchedAt.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("unexpected timestamp %v", entries[0].SearchedAt)
	}

	n, err := store.Clear()
	if err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows cleared, got %d", n)
	}

	entries, err = store.Recent(0)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}
