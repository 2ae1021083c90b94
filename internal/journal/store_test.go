package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/AudibleTuner/pkg/models"
	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "journal.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(t *testing.T, s *Store, str int, started time.Time, inTune bool, durMs int64) string {
	t.Helper()
	id, err := s.Record(&models.SessionRecord{
		String:        str,
		Note:          "A2",
		TargetHz:      110,
		Mode:          "play-tone",
		StartedAt:     started,
		EndedAt:       started.Add(time.Duration(durMs) * time.Millisecond),
		DurationMs:    durMs,
		Readings:      12,
		BestCents:     1.5,
		HasBest:       true,
		LastCents:     -3,
		LastHz:        109.8,
		ReachedInTune: inTune,
		EndState:      "ProvidingFeedback",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	return id
}

func TestRecordAndGet(t *testing.T) {
	s := setupStore(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id := record(t, s, 5, start, true, 8000)

	if !utils.ValidID(id) {
		t.Fatalf("Record returned %q", id)
	}

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.String != 5 || got.Note != "A2" || got.Readings != 12 || !got.ReachedInTune {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, start)
	}
	if got.LastCents != -3 || got.BestCents != 1.5 || !got.HasBest {
		t.Errorf("cents = %v/%v", got.BestCents, got.LastCents)
	}
}

func TestRecordKeepsGivenID(t *testing.T) {
	s := setupStore(t)
	rec := &models.SessionRecord{ID: utils.NewSessionID(), String: 1, StartedAt: time.Now()}
	id, err := s.Record(rec)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id != rec.ID {
		t.Errorf("id = %s, want %s", id, rec.ID)
	}
	if _, err := s.Record(rec); err == nil {
		t.Error("duplicate id should fail")
	}
}

func TestGetMissing(t *testing.T) {
	s := setupStore(t)
	_, err := s.Get(utils.NewSessionID())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListOrderAndLimit(t *testing.T) {
	s := setupStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := record(t, s, 6, base, false, 1000)
	second := record(t, s, 5, base.Add(time.Minute), true, 2000)
	third := record(t, s, 6, base.Add(2*time.Minute), true, 3000)

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != third || all[2].ID != first {
		t.Fatalf("order = %v", ids(all))
	}

	limited, _ := s.List(2)
	if len(limited) != 2 || limited[1].ID != second {
		t.Errorf("limited = %v", ids(limited))
	}

	sixth, _ := s.ListByString(6, 0)
	if len(sixth) != 2 || sixth[0].ID != third {
		t.Errorf("string 6 = %v", ids(sixth))
	}
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	id := record(t, s, 3, time.Now(), false, 500)

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v", err)
	}
	if err := s.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestStats(t *testing.T) {
	s := setupStore(t)
	now := time.Now()
	record(t, s, 6, now, true, 1000)
	record(t, s, 6, now, false, 3000)
	record(t, s, 1, now, true, 4000)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats[0].String != 1 || stats[0].Sessions != 1 || stats[0].ReachedInTune != 1 {
		t.Errorf("string 1 = %+v", stats[0])
	}
	if stats[1].String != 6 || stats[1].Sessions != 2 || stats[1].ReachedInTune != 1 || stats[1].AvgDurationMs != 2000 {
		t.Errorf("string 6 = %+v", stats[1])
	}
}

func TestClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "j.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.List(0); err == nil {
		t.Error("List on closed store should fail")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func ids(recs []models.SessionRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID[:8]
	}
	return out
}
