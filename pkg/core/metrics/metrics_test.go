package metrics

import (
	"testing"
	"time"

	"stockdelta/pkg/models"
)

func TestPercentChange(t *testing.T) {
	cases := []struct {
		prev, cur, want float64
	}{
		{100, 110, 10},
		{100, 90, -10},
		{0, 50, 0},
		{-100, -50, 50},
		{3, 4, 33.33},
	}
	for _, c := range cases {
		if got := PercentChange(c.prev, c.cur); got != c.want {
			t.Errorf("PercentChange(%v, %v) = %v, want %v", c.prev, c.cur, got, c.want)
		}
	}
}

func TestZScoreBuckets(t *testing.T) {
	cases := []struct {
		change, want float64
	}{
		{75, 3.0},
		{-75, 3.0},
		{35, 2.5},
		{25, 2.0},
		{15, 1.5},
		{5, 0.5},
		{0, 0},
	}
	for _, c := range cases {
		if got := ZScore(c.change); got != c.want {
			t.Errorf("ZScore(%v) = %v, want %v", c.change, got, c.want)
		}
	}
}

func TestChangeMetricsSkipsMissingConcepts(t *testing.T) {
	current := map[string]float64{"Revenue": 110, "NetIncome": 20}
	previous := map[string]float64{"Revenue": 100}

	ms := ChangeMetrics(1, current, previous, BasisQoQ)
	if len(ms) != 1 {
		t.Fatalf("expected only concepts present in both periods, got %d", len(ms))
	}
	if ms[0].Concept != "Revenue" || ms[0].Value != 10 || ms[0].Basis != BasisQoQ {
		t.Errorf("unexpected metric: %+v", ms[0])
	}
}

func TestAbsoluteMetricsFollowsConceptOrder(t *testing.T) {
	values := map[string]float64{"NetIncome": 20, "Revenue": 110}
	ms := AbsoluteMetrics(1, values)
	if len(ms) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(ms))
	}
	if ms[0].Concept != "Revenue" || ms[1].Concept != "NetIncome" {
		t.Errorf("metrics should follow the canonical concept order: %+v", ms)
	}
}

func TestBuildHeatmapPrefersQoQForZScore(t *testing.T) {
	ms := []Metric{
		{FilingID: 1, Concept: "Revenue", Basis: BasisAbsolute, Value: 110},
		{FilingID: 1, Concept: "Revenue", Basis: BasisQoQ, Value: 15},
		{FilingID: 1, Concept: "Revenue", Basis: BasisYoY, Value: 60},
	}

	h := BuildHeatmap(1, ms)
	if len(h.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(h.Rows))
	}
	row := h.Rows[0]
	if row.ZScore != 1.5 {
		t.Errorf("Z-score should come from the QoQ change: got %v", row.ZScore)
	}
	if row.Values[BasisYoY] != 60 {
		t.Errorf("YoY value missing from row: %+v", row)
	}
}

func TestBuildHeatmapFallsBackToYoY(t *testing.T) {
	ms := []Metric{
		{FilingID: 1, Concept: "Assets", Basis: BasisYoY, Value: 35},
	}
	h := BuildHeatmap(1, ms)
	if h.Rows[0].ZScore != 2.5 {
		t.Errorf("Z-score should fall back to YoY: got %v", h.Rows[0].ZScore)
	}
}

func TestCalculate(t *testing.T) {
	pe := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	filing := func(id int64, acc string, periodEnd *time.Time) models.Filing {
		return models.Filing{
			ID: id, CIK: "0000320193", AccessionNo: acc,
			Form: models.Form10Q, PeriodEnd: periodEnd,
			FiledAt: periodEnd.AddDate(0, 1, 0),
		}
	}

	current := filing(3, "acc-3", pe(2024, 9, 30))
	candidates := []models.Filing{
		filing(1, "acc-1", pe(2023, 9, 30)), // YoY baseline
		filing(2, "acc-2", pe(2024, 6, 30)), // QoQ baseline
		current,
	}
	values := map[int64]map[string]float64{
		1: {"Revenue": 80},
		2: {"Revenue": 100},
		3: {"Revenue": 110},
	}

	ms := Calculate(current, candidates, func(id int64) map[string]float64 { return values[id] })

	byBasis := map[Basis]float64{}
	for _, m := range ms {
		if m.Concept == "Revenue" {
			byBasis[m.Basis] = m.Value
		}
	}
	if byBasis[BasisAbsolute] != 110 {
		t.Errorf("Abs = %v, want 110", byBasis[BasisAbsolute])
	}
	if byBasis[BasisQoQ] != 10 {
		t.Errorf("QoQ = %v, want 10", byBasis[BasisQoQ])
	}
	if byBasis[BasisYoY] != 37.5 {
		t.Errorf("YoY = %v, want 37.5", byBasis[BasisYoY])
	}
}

func TestCalculateNoValues(t *testing.T) {
	current := models.Filing{ID: 1, CIK: "1", Form: models.Form10Q}
	ms := Calculate(current, nil, func(int64) map[string]float64 { return nil })
	if ms != nil {
		t.Errorf("no normalized values should yield no metrics, got %+v", ms)
	}
}
