package delta

import (
	"sort"

	"stockdelta/pkg/models"
)

// TopChangesLimit caps the "top changes" view in a delta summary.
const TopChangesLimit = 10

// Summarize aggregates a filing's deltas into the read-side summary: total
// and per-operation counts plus the top fragments by descending score. The
// sort is stable so equal scores keep their document order.
func Summarize(filingID int64, deltas []models.FilingDelta) models.DeltaSummary {
	summary := models.DeltaSummary{
		FilingID:     filingID,
		TotalChanges: len(deltas),
		TopChanges:   []models.FilingDelta{},
	}

	for _, d := range deltas {
		switch d.Op {
		case models.OpInsert:
			summary.InsertCount++
		case models.OpDelete:
			summary.DeleteCount++
		case models.OpModify:
			summary.ModifyCount++
		}
	}

	ranked := make([]models.FilingDelta, len(deltas))
	copy(ranked, deltas)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > TopChangesLimit {
		ranked = ranked[:TopChangesLimit]
	}
	summary.TopChanges = ranked

	return summary
}
