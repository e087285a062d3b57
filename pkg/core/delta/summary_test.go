package delta

import (
	"fmt"
	"testing"

	"stockdelta/pkg/models"
)

func TestSummarizeCounts(t *testing.T) {
	deltas := []models.FilingDelta{
		{Op: models.OpInsert, Score: 0.5},
		{Op: models.OpInsert, Score: 0.3},
		{Op: models.OpDelete, Score: 0.7},
	}

	s := Summarize(42, deltas)
	if s.FilingID != 42 {
		t.Errorf("FilingID = %d", s.FilingID)
	}
	if s.TotalChanges != 3 || s.InsertCount != 2 || s.DeleteCount != 1 || s.ModifyCount != 0 {
		t.Errorf("bad counts: %+v", s)
	}
}

func TestSummarizeTopChangesRankedAndCapped(t *testing.T) {
	var deltas []models.FilingDelta
	for i := 0; i < 25; i++ {
		deltas = append(deltas, models.FilingDelta{
			Op:      models.OpInsert,
			Snippet: fmt.Sprintf("change %d", i),
			Score:   float64(i%13) / 13.0,
		})
	}

	s := Summarize(1, deltas)
	if len(s.TopChanges) != TopChangesLimit {
		t.Fatalf("expected %d top changes, got %d", TopChangesLimit, len(s.TopChanges))
	}
	for i := 1; i < len(s.TopChanges); i++ {
		if s.TopChanges[i].Score > s.TopChanges[i-1].Score {
			t.Errorf("top changes not in descending score order at %d", i)
		}
	}
	if s.TotalChanges != 25 {
		t.Errorf("TotalChanges = %d", s.TotalChanges)
	}
}

func TestSummarizeStableForEqualScores(t *testing.T) {
	deltas := []models.FilingDelta{
		{Op: models.OpInsert, Snippet: "first", Score: 0.5},
		{Op: models.OpInsert, Snippet: "second", Score: 0.5},
		{Op: models.OpInsert, Snippet: "third", Score: 0.5},
	}

	s := Summarize(1, deltas)
	got := []string{s.TopChanges[0].Snippet, s.TopChanges[1].Snippet, s.TopChanges[2].Snippet}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("equal scores must keep document order: got %v", got)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(9, nil)
	if s.TotalChanges != 0 || len(s.TopChanges) != 0 {
		t.Errorf("empty input should summarize to zeroes: %+v", s)
	}
	if s.TopChanges == nil {
		t.Error("TopChanges should be an empty slice, not nil")
	}
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	deltas := []models.FilingDelta{
		{Snippet: "low", Score: 0.1},
		{Snippet: "high", Score: 0.9},
	}
	Summarize(1, deltas)
	if deltas[0].Snippet != "low" || deltas[1].Snippet != "high" {
		t.Error("Summarize must not reorder the caller's slice")
	}
}
