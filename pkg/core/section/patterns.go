package section

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Section header patterns for the flattened-text fallback. Filings repeat
// item references in their table of contents, so a bare header match is not
// enough; see locateByPattern for the disambiguation pass.
var sectionPatterns = map[string]*regexp.Regexp{
	"Item1A": regexp.MustCompile(`(?i)ITEM\s*1A[.:\s]*\s*RISK\s*FACTORS`),
	"Item7":  regexp.MustCompile(`(?i)ITEM\s*7[.:\s]*(?:MANAGEMENT|MD&A|DISCUSSION)`),
	"Item7A": regexp.MustCompile(`(?i)ITEM\s*7A[.:\s]*\s*QUANTITATIVE\s*AND\s*QUALITATIVE`),
}

var (
	// itemHeaderRe matches an element that starts a new item section during
	// the sibling walk. Uppercase ITEM only: running text references items in
	// mixed case, real headers do not.
	itemHeaderRe = regexp.MustCompile(`^\s*ITEM\s+\d{1,2}[A-Z]?[.:\s]`)

	// nextItemRe finds the end boundary of a section in flattened text.
	// Roman numerals appear in some older filings' part headers.
	nextItemRe = regexp.MustCompile(`(?i)ITEM\s*(?:[0-9]{1,2}[A-Z]?|[IVX]+)[.:\s]`)

	// tocItemRe counts generic item references around a candidate match.
	tocItemRe = regexp.MustCompile(`Item\s+[0-9]`)

	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
)

// locateByPattern is the flattened-text fallback strategy, used only when the
// structural strategy yields nothing. It scans every header match for the
// section, classifying each candidate as table-of-contents noise or real
// content by the density of "Item N" references in a window around it. The
// first non-TOC match wins; if every match looks like TOC the last one is
// used, since TOC entries precede the body.
func (l *Locator) locateByPattern(_ *goquery.Document, flat string, sectionID string) string {
	pattern, ok := sectionPatterns[sectionID]
	if !ok || flat == "" {
		return ""
	}

	start := -1
	for _, match := range pattern.FindAllStringIndex(flat, -1) {
		start = match[0]
		if !l.looksLikeTOC(flat, start) {
			break
		}
	}
	if start == -1 {
		return ""
	}

	end := l.findSectionEnd(flat, start)
	return strings.TrimSpace(flat[start:end])
}

// looksLikeTOC reports whether the match at pos sits inside a table of
// contents, judged by how many "Item N" references occur in the surrounding
// window. Real section bodies mention other items rarely; TOC listings pack
// them together.
func (l *Locator) looksLikeTOC(flat string, pos int) bool {
	lo := pos - l.cfg.TOCWindowBefore
	if lo < 0 {
		lo = 0
	}
	hi := pos + l.cfg.TOCWindowAfter
	if hi > len(flat) {
		hi = len(flat)
	}
	hits := tocItemRe.FindAllStringIndex(flat[lo:hi], -1)
	return len(hits) >= l.cfg.TOCItemThreshold
}

// findSectionEnd returns the exclusive end offset for a section starting at
// start: the next ITEM marker at least BoundaryMinSkip characters past the
// start (so the section's own header is not matched), else start plus the
// length ceiling, else end of document.
func (l *Locator) findSectionEnd(flat string, start int) int {
	searchFrom := start + l.cfg.BoundaryMinSkip
	if searchFrom < len(flat) {
		if m := nextItemRe.FindStringIndex(flat[searchFrom:]); m != nil {
			return searchFrom + m[0]
		}
	}
	end := start + l.cfg.MaxSectionLength
	if end > len(flat) {
		end = len(flat)
	}
	return end
}

// stripTags is the last-resort flattener for HTML that goquery could not
// parse: drop script/style blocks, remove tags, decode the entities that
// matter for header matching.
func stripTags(html string) string {
	html = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`).ReplaceAllString(html, "")
	html = htmlTagRe.ReplaceAllString(html, " ")
	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = strings.ReplaceAll(html, "&#160;", " ")
	html = strings.ReplaceAll(html, "&amp;", "&")
	return html
}
