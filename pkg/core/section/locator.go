// Package section locates and extracts named narrative sections (Item 1A,
// Item 7, Item 7A) from SEC filing documents.
//
// Filings are noisy, inconsistently structured HTML with no reliable schema,
// so location runs an ordered chain of strategies with first-success
// semantics:
//  1. Structural: find an anchor/div whose name or id matches a known
//     spelling variant of the section, then walk forward through siblings
//     accumulating text until the next item header.
//  2. Pattern: search the flattened document text with a section-specific
//     regex, skipping table-of-contents matches by measuring how densely
//     "Item N" references cluster around each candidate.
//
// Absence of a section is a valid, silent outcome: strategies return the
// empty string and Locate returns nil without error. Only an invalid
// (form, section) combination is reported as a caller error.
package section

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stockdelta/pkg/core/textutil"
	"stockdelta/pkg/models"
)

// Config carries the locator's heuristic thresholds. The TOC window and item
// density threshold are tuned constants carried over from production use, not
// derived values; treat them as a matched set.
type Config struct {
	MinSectionLength int // below this a located section is a false positive
	MaxSectionLength int // accumulation/extraction ceiling in characters
	MaxWalkElements  int // sibling walk hard cap
	MinWalkElements  int // item-header stop only applies after this many siblings
	TOCWindowBefore  int // chars before a candidate inspected for TOC density
	TOCWindowAfter   int // chars after a candidate inspected for TOC density
	TOCItemThreshold int // "Item N" hits in the window at or above this = TOC
	BoundaryMinSkip  int // chars the end-boundary search skips past the start
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinSectionLength: 50,
		MaxSectionLength: 50000,
		MaxWalkElements:  200,
		MinWalkElements:  2,
		TOCWindowBefore:  200,
		TOCWindowAfter:   500,
		TOCItemThreshold: 3,
		BoundaryMinSkip:  100,
	}
}

// Text is a located, normalized section.
type Text struct {
	Section   string
	Content   string
	Hash      string
	CharCount int
}

// Locator finds sections inside parsed filing documents.
type Locator struct {
	cfg Config
}

// NewLocator creates a locator with default thresholds.
func NewLocator() *Locator {
	return &Locator{cfg: DefaultConfig()}
}

// NewLocatorWithConfig creates a locator with custom thresholds.
func NewLocatorWithConfig(cfg Config) *Locator {
	return &Locator{cfg: cfg}
}

// strategy attempts to extract raw (pre-normalization) section text.
// Returns "" when the strategy finds nothing; the chain moves on.
type strategy func(doc *goquery.Document, flat string, sectionID string) string

// Locate finds a single section in the document. doc may be nil when the
// HTML could not be parsed, in which case only the flattened-text strategy
// runs over flat. A nil result with nil error means the section was not
// found or could not be confidently located.
func (l *Locator) Locate(doc *goquery.Document, flat string, form models.FormType, sectionID string) (*Text, error) {
	if !models.ValidSection(form, sectionID) {
		return nil, fmt.Errorf("section %s is not defined for form %s", sectionID, form)
	}

	chain := []strategy{l.locateByAnchor, l.locateByPattern}
	for _, strat := range chain {
		raw := strat(doc, flat, sectionID)
		if raw == "" {
			continue
		}
		content := textutil.Normalize(raw)
		if len(content) < l.cfg.MinSectionLength {
			continue
		}
		return &Text{
			Section:   sectionID,
			Content:   content,
			Hash:      textutil.Hash(content),
			CharCount: len(content),
		}, nil
	}
	return nil, nil
}

// LocateAll extracts every section defined for the form. Missing sections are
// simply absent from the result.
func (l *Locator) LocateAll(doc *goquery.Document, flat string, form models.FormType) []Text {
	var found []Text
	for _, sectionID := range models.SectionsForForm(form) {
		text, err := l.Locate(doc, flat, form, sectionID)
		if err != nil || text == nil {
			continue
		}
		found = append(found, *text)
	}
	return found
}

// Prepare parses raw filing HTML into the document tree and flattened text
// the locator operates on. Script, style, and noscript content is removed
// before flattening. On a parse failure doc is nil and flat falls back to a
// regex-stripped rendering so the pattern strategy still has input.
func Prepare(html string) (*goquery.Document, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, stripTags(html)
	}
	doc.Find("script, style, noscript").Remove()
	return doc, doc.Text()
}

// anchorVariants returns the spelling variants filings use for a section's
// anchor name/id, in the order they are tried. "Item1A" yields item1a,
// item_1a, "item 1a", 1a, and s1a.
func anchorVariants(sectionID string) []string {
	lower := strings.ToLower(sectionID) // "item1a"
	suffix := strings.TrimPrefix(lower, "item")
	return []string{
		lower,
		"item_" + suffix,
		"item " + suffix,
		suffix,
		"s" + suffix,
	}
}

// locateByAnchor is the structural strategy: find a marker element whose
// name/id attribute matches a spelling variant, then accumulate sibling text.
// A hit that yields too little text is treated as a false positive (typically
// an empty TOC back-link anchor) and the next variant is tried.
func (l *Locator) locateByAnchor(doc *goquery.Document, flat string, sectionID string) string {
	if doc == nil {
		return ""
	}

	for _, variant := range anchorVariants(sectionID) {
		anchor := findMarker(doc, variant)
		if anchor == nil {
			continue
		}
		text := l.walkSiblings(anchor)
		if len(text) >= l.cfg.MinSectionLength {
			return text
		}
	}
	return ""
}

// findMarker returns the first anchor or div whose name or id equals the
// variant, case-insensitively.
func findMarker(doc *goquery.Document, variant string) *goquery.Selection {
	var marker *goquery.Selection
	doc.Find("a[name], a[id], div[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"name", "id"} {
			if v, ok := s.Attr(attr); ok && strings.EqualFold(strings.TrimSpace(v), variant) {
				marker = s
				return false
			}
		}
		return true
	})
	return marker
}

// walkSiblings accumulates text from the elements following the marker. The
// walk is a fold over the sibling sequence with an explicit stop predicate;
// see stopWalk for the termination conditions.
func (l *Locator) walkSiblings(marker *goquery.Selection) string {
	current := marker.Next()
	if current.Length() == 0 {
		// Bare anchors often sit alone inside a wrapper; continue from the
		// wrapper's siblings instead.
		current = marker.Parent().Next()
	}

	var buf strings.Builder
	count := 0
	for ; current.Length() > 0; current = current.Next() {
		count++
		text := strings.TrimSpace(current.Text())
		if stopWalk(l.cfg, text, count, buf.Len()) {
			break
		}
		if text != "" {
			buf.WriteString(text)
			buf.WriteByte(' ')
		}
	}
	return strings.TrimSpace(buf.String())
}

// stopWalk decides whether the sibling walk terminates before consuming the
// element whose text is elemText. It stops when the element looks like the
// next item header (but only after MinWalkElements siblings, so the section's
// own header is not mistaken for the boundary), when the accumulated length
// has reached the ceiling, or when the element cap is hit.
func stopWalk(cfg Config, elemText string, elemCount, accumulated int) bool {
	if elemCount > cfg.MaxWalkElements {
		return true
	}
	if accumulated > cfg.MaxSectionLength {
		return true
	}
	if elemCount > cfg.MinWalkElements && itemHeaderRe.MatchString(elemText) {
		return true
	}
	return false
}
