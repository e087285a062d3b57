// Package metrics computes quarter-over-quarter and year-over-year percentage
// changes for a filing's normalized financial concepts, plus a simplified
// Z-score used by the heatmap overlay. It reuses the baseline package's
// tolerance-windowed prior-filing resolution and is otherwise straightforward
// arithmetic over value maps.
package metrics

import (
	"math"

	"stockdelta/pkg/core/baseline"
	"stockdelta/pkg/models"
)

// CoreConcepts are the normalized concepts tracked for change metrics.
var CoreConcepts = []string{
	"Revenue",
	"OperatingIncome",
	"NetIncome",
	"Assets",
	"CurrentAssets",
	"Liabilities",
	"CurrentLiabilities",
	"Equity",
	"Cash",
	"Inventory",
	"CapitalExpenditures",
	"EPS",
	"EPSDiluted",
}

// Basis identifies the comparison basis of a metric value.
type Basis string

const (
	BasisAbsolute Basis = "Abs"
	BasisQoQ      Basis = "QoQ"
	BasisYoY      Basis = "YoY"
)

// Metric is one computed value for a filing: an absolute concept value or a
// percentage change against a comparison basis.
type Metric struct {
	FilingID int64   `json:"filing_id"`
	Concept  string  `json:"concept"`
	Basis    Basis   `json:"basis"`
	Value    float64 `json:"value"`
}

// HeatmapRow is the per-concept read model for the heatmap overlay.
type HeatmapRow struct {
	Concept string            `json:"metric"`
	Values  map[Basis]float64 `json:"values"`
	ZScore  float64           `json:"zScore"`
}

// Heatmap is the heatmap read model for one filing.
type Heatmap struct {
	FilingID int64        `json:"filing_id"`
	Rows     []HeatmapRow `json:"rows"`
}

// AbsoluteMetrics emits an Abs metric for every core concept present in the
// value map.
func AbsoluteMetrics(filingID int64, values map[string]float64) []Metric {
	var out []Metric
	for _, concept := range CoreConcepts {
		if v, ok := values[concept]; ok {
			out = append(out, Metric{FilingID: filingID, Concept: concept, Basis: BasisAbsolute, Value: v})
		}
	}
	return out
}

// ChangeMetrics computes percentage changes for every core concept present in
// both periods, on the given basis. Changes are rounded to two decimals; a
// zero prior value yields a zero change rather than a division blowup.
func ChangeMetrics(filingID int64, current, previous map[string]float64, basis Basis) []Metric {
	var out []Metric
	for _, concept := range CoreConcepts {
		cur, okCur := current[concept]
		prev, okPrev := previous[concept]
		if !okCur || !okPrev {
			continue
		}
		out = append(out, Metric{
			FilingID: filingID,
			Concept:  concept,
			Basis:    basis,
			Value:    PercentChange(prev, cur),
		})
	}
	return out
}

// PercentChange returns the percentage change from previous to current,
// rounded to two decimals. Returns 0 when previous is 0.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	pct := (current - previous) / math.Abs(previous) * 100
	return math.Round(pct*100) / 100
}

// ZScore maps an absolute percentage change onto a simplified anomaly scale.
// Bucketed rather than distribution-based: the heatmap only needs a coarse
// severity signal.
func ZScore(percentChange float64) float64 {
	abs := math.Abs(percentChange)
	switch {
	case abs > 50:
		return 3.0
	case abs > 30:
		return 2.5
	case abs > 20:
		return 2.0
	case abs > 10:
		return 1.5
	default:
		return abs / 10.0
	}
}

// BuildHeatmap groups metrics by concept and attaches a Z-score computed from
// the QoQ change when present, else the YoY change.
func BuildHeatmap(filingID int64, metrics []Metric) Heatmap {
	byConcept := make(map[string]map[Basis]float64)
	var order []string
	for _, m := range metrics {
		if _, ok := byConcept[m.Concept]; !ok {
			byConcept[m.Concept] = make(map[Basis]float64)
			order = append(order, m.Concept)
		}
		byConcept[m.Concept][m.Basis] = m.Value
	}

	heatmap := Heatmap{FilingID: filingID, Rows: []HeatmapRow{}}
	for _, concept := range order {
		values := byConcept[concept]
		row := HeatmapRow{Concept: concept, Values: values}
		if change, ok := values[BasisQoQ]; ok {
			row.ZScore = ZScore(change)
		} else if change, ok := values[BasisYoY]; ok {
			row.ZScore = ZScore(change)
		}
		heatmap.Rows = append(heatmap.Rows, row)
	}
	return heatmap
}

// Calculate produces the full metric set for a filing: absolute values plus
// QoQ and YoY changes against the tolerance-window baselines. valuesFor loads
// the normalized concept values for a filing; it returns nil when none exist
// (e.g. the baseline filing was never normalized), which simply skips that
// basis. A filing with no resolvable baseline yields absolute metrics only.
func Calculate(current models.Filing, candidates []models.Filing, valuesFor func(filingID int64) map[string]float64) []Metric {
	currentValues := valuesFor(current.ID)
	if len(currentValues) == 0 {
		return nil
	}

	out := AbsoluteMetrics(current.ID, currentValues)

	if qoq := baseline.ResolveQuarterOverQuarter(current, candidates); qoq != nil {
		if prev := valuesFor(qoq.ID); len(prev) > 0 {
			out = append(out, ChangeMetrics(current.ID, currentValues, prev, BasisQoQ)...)
		}
	}
	if yoy := baseline.ResolveYearOverYear(current, candidates); yoy != nil {
		if prev := valuesFor(yoy.ID); len(prev) > 0 {
			out = append(out, ChangeMetrics(current.ID, currentValues, prev, BasisYoY)...)
		}
	}

	return out
}
