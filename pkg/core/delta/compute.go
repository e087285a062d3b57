// Package delta computes scored change fragments between a filing's sections
// and the same sections in its comparison baseline.
//
// The text diff is the Myers longest-common-subsequence diff from
// github.com/sergi/go-diff (the Go port of diff-match-patch), followed by the
// library's semantic cleanup pass, which merges small low-signal edits
// bordering unchanged text so re-wrapped whitespace does not shred into
// fragment noise.
package delta

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"stockdelta/pkg/models"
)

// Snippet bounds. Fragments shorter than MinSnippetLength are trivial edits
// (a changed word, punctuation) and are not materialized; longer ones are
// clipped to MaxSnippetLength with the truncation marker appended.
const (
	MinSnippetLength = 20
	MaxSnippetLength = 500
	TruncationMarker = "..."
)

// Fixed scores for whole-section changes. A new section is slightly more
// notable than a dropped one.
const (
	SectionAddedScore   = 0.8
	SectionRemovedScore = 0.7
)

// Computer diffs section sets and scores the resulting fragments.
type Computer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewComputer creates a delta computer.
func NewComputer() *Computer {
	return &Computer{dmp: diffmatchpatch.New()}
}

// ComputeDeltas compares the current filing's sections against the previous
// filing's and returns the change fragments, in document order. Sections
// present only in current produce a single whole-section-added fragment;
// sections present only in previous produce a whole-section-removed one.
// Matching content hashes short-circuit the diff entirely.
func (c *Computer) ComputeDeltas(filingID int64, current, previous []models.FilingSection) []models.FilingDelta {
	deltas := make([]models.FilingDelta, 0)

	prevByID := make(map[string]models.FilingSection, len(previous))
	for _, s := range previous {
		prevByID[s.Section] = s
	}

	for _, cur := range current {
		prev, exists := prevByID[cur.Section]
		if !exists {
			deltas = append(deltas, sectionAddedDelta(filingID, cur))
			continue
		}
		if cur.TextHash != "" && cur.TextHash == prev.TextHash {
			continue
		}
		deltas = append(deltas, c.diffSectionText(filingID, cur.Section, prev.Text, cur.Text)...)
	}

	curByID := make(map[string]bool, len(current))
	for _, s := range current {
		curByID[s.Section] = true
	}
	for _, prev := range previous {
		if !curByID[prev.Section] {
			deltas = append(deltas, sectionRemovedDelta(filingID, prev))
		}
	}

	return deltas
}

// diffSectionText runs the text diff for one section. Equal spans are
// discarded; surviving Insert/Delete fragments are clipped, length-filtered,
// and scored. Output order follows document order of occurrence -- sorting
// by score is the aggregator's concern.
func (c *Computer) diffSectionText(filingID int64, sectionID, prevText, curText string) []models.FilingDelta {
	diffs := c.dmp.DiffMain(prevText, curText, false)
	diffs = c.dmp.DiffCleanupSemantic(diffs)

	var out []models.FilingDelta
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}

		snippet := truncateSnippet(d.Text)
		if len(snippet) < MinSnippetLength {
			continue
		}

		op := models.OpInsert
		if d.Type == diffmatchpatch.DiffDelete {
			op = models.OpDelete
		}

		out = append(out, models.FilingDelta{
			FilingID: filingID,
			Section:  sectionID,
			Op:       op,
			Snippet:  snippet,
			Score:    RoundScore(Score(snippet)),
		})
	}
	return out
}

func sectionAddedDelta(filingID int64, s models.FilingSection) models.FilingDelta {
	return models.FilingDelta{
		FilingID: filingID,
		Section:  s.Section,
		Op:       models.OpInsert,
		Snippet:  truncateSnippet(fmt.Sprintf("Entire section added: %s", s.Section)),
		Score:    SectionAddedScore,
	}
}

func sectionRemovedDelta(filingID int64, s models.FilingSection) models.FilingDelta {
	return models.FilingDelta{
		FilingID: filingID,
		Section:  s.Section,
		Op:       models.OpDelete,
		Snippet:  truncateSnippet(fmt.Sprintf("Entire section removed: %s", s.Section)),
		Score:    SectionRemovedScore,
	}
}

// truncateSnippet clips text to MaxSnippetLength bytes and appends the
// truncation marker when anything was cut. The clip point backs up to the
// nearest rune boundary so a multi-byte character straddling the limit never
// leaves a dangling continuation byte; stored snippets must stay valid UTF-8.
func truncateSnippet(text string) string {
	if len(text) <= MaxSnippetLength {
		return text
	}
	cut := MaxSnippetLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + TruncationMarker
}

// RoundScore rounds to the 3-decimal precision deltas are persisted with.
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
