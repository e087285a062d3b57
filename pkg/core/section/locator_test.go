package section

import (
	"reflect"
	"strings"
	"testing"

	"stockdelta/pkg/models"
)

func TestAnchorVariants(t *testing.T) {
	got := anchorVariants("Item1A")
	want := []string{"item1a", "item_1a", "item 1a", "1a", "s1a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("anchorVariants(Item1A) = %v, want %v", got, want)
	}
}

func TestLocateByAnchor(t *testing.T) {
	html := `<html><body>
		<a name="item1a"></a>
		<p>Risk factors include litigation, regulatory investigations, and material adverse changes in demand for our products across all markets we serve.</p>
		<p>Additional uncertainty stems from competition and supply chain disruption in our principal manufacturing regions.</p>
		<p>ITEM 2. PROPERTIES</p>
		<p>We own facilities in several states.</p>
	</body></html>`

	doc, flat := Prepare(html)
	loc := NewLocator()

	text, err := loc.Locate(doc, flat, models.Form10K, "Item1A")
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if text == nil {
		t.Fatal("expected section to be located via anchor")
	}
	if !strings.Contains(text.Content, "litigation") {
		t.Errorf("content missing body text: %q", text.Content)
	}
	if strings.Contains(text.Content, "PROPERTIES") {
		t.Errorf("walk did not stop at the next item header: %q", text.Content)
	}
	if text.CharCount != len(text.Content) {
		t.Errorf("CharCount %d does not match content length %d", text.CharCount, len(text.Content))
	}
	if len(text.Hash) != 64 {
		t.Errorf("expected SHA-256 hex hash, got %q", text.Hash)
	}
}

func TestLocateAnchorFallsBackThroughVariants(t *testing.T) {
	html := `<html><body>
		<div id="ITEM_1A"></div>
		<p>Our business is subject to numerous risks and uncertainties including lawsuits, defaults, and breaches of our credit agreements that could materially affect results.</p>
		<p>These risks are not the only ones we face.</p>
		<p>ITEM 1B. UNRESOLVED STAFF COMMENTS</p>
	</body></html>`

	doc, flat := Prepare(html)
	text, err := NewLocator().Locate(doc, flat, models.Form10K, "Item1A")
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if text == nil {
		t.Fatal("expected div id=ITEM_1A to match the item_1a variant")
	}
	if !strings.Contains(text.Content, "lawsuits") {
		t.Errorf("unexpected content: %q", text.Content)
	}
}

func TestLocateInvalidSection(t *testing.T) {
	doc, flat := Prepare("<html><body><p>anything</p></body></html>")
	if _, err := NewLocator().Locate(doc, flat, models.Form10Q, "Item7A"); err == nil {
		t.Error("Item7A is not defined for 10-Q, expected an error")
	}
}

func TestLocateAbsentSectionIsNilNil(t *testing.T) {
	doc, flat := Prepare("<html><body><p>No narrative sections at all in this document.</p></body></html>")
	text, err := NewLocator().Locate(doc, flat, models.Form10K, "Item7A")
	if err != nil {
		t.Fatalf("absence should not be an error, got %v", err)
	}
	if text != nil {
		t.Errorf("expected nil for absent section, got %+v", text)
	}
}

func TestLocateRejectsTooShortSection(t *testing.T) {
	html := `<html><body>
		<a name="item7a"></a>
		<p>None.</p>
		<p>short</p>
		<p>ITEM 8. FINANCIAL STATEMENTS</p>
	</body></html>`
	doc, flat := Prepare(html)

	// Pattern fallback cannot fire either: no "quantitative and qualitative"
	// header exists in the text.
	text, err := NewLocator().Locate(doc, flat, models.Form10K, "Item7A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != nil {
		t.Errorf("sub-minimum section should be rejected, got %q", text.Content)
	}
}

func TestLocateByPatternSkipsTOC(t *testing.T) {
	toc := "Item 1. Business Item 1A. Risk Factors Item 2. Properties Item 3. Legal Proceedings "
	filler := strings.Repeat("general discussion of the business follows here ", 40)
	body := "ITEM 1A. RISK FACTORS Our operations face substantial risk from litigation, regulatory action, and adverse market developments. " +
		strings.Repeat("Each of these factors could harm our financial condition. ", 5)
	tail := "ITEM 2. PROPERTIES We own our headquarters."
	flat := toc + filler + body + tail

	// nil doc forces the pattern strategy.
	text, err := NewLocator().Locate(nil, flat, models.Form10K, "Item1A")
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if text == nil {
		t.Fatal("expected section to be located via pattern")
	}
	if !strings.HasPrefix(text.Content, "ITEM 1A. RISK FACTORS Our operations") {
		t.Errorf("located the TOC entry instead of the body: %q", text.Content[:60])
	}
	if strings.Contains(text.Content, "PROPERTIES") {
		t.Errorf("section end overran the next item header: %q", text.Content)
	}
}

func TestLocateByPatternAllTOCUsesLastMatch(t *testing.T) {
	// Two matches, both inside dense item listings. The later one should win
	// since TOC entries precede the body.
	first := "Item 1. Business Item 1A. Risk Factors Item 2. Properties Item 3. Legal "
	pad := strings.Repeat("padding text without item references at all in this run ", 20)
	second := "Item 1. Business Item 1A. Risk Factors summary of principal risks follows with enough text to clear the length floor for extraction purposes Item 2. Properties Item 3. Legal "
	flat := first + pad + second

	loc := NewLocator()
	raw := loc.locateByPattern(nil, flat, "Item1A")
	if raw == "" {
		t.Fatal("expected a fallback match")
	}
	if strings.Index(flat, raw) <= len(first) {
		t.Error("expected the last (later) match to be chosen when all matches look like TOC")
	}
}

func TestStopWalk(t *testing.T) {
	cfg := DefaultConfig()

	if stopWalk(cfg, "more text", cfg.MaxWalkElements+1, 100) != true {
		t.Error("walk should stop past the element cap")
	}
	if stopWalk(cfg, "more text", 5, cfg.MaxSectionLength+1) != true {
		t.Error("walk should stop past the length ceiling")
	}
	if stopWalk(cfg, "ITEM 2. PROPERTIES", 3, 100) != true {
		t.Error("walk should stop at the next item header")
	}
	if stopWalk(cfg, "ITEM 1A. RISK FACTORS", 1, 0) != false {
		t.Error("the section's own header must not stop the walk early")
	}
	if stopWalk(cfg, "Item 2 is referenced in running text", 5, 100) != false {
		t.Error("mixed-case item references are not headers")
	}
}

func TestPrepareStripsScriptAndStyle(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head><body>
		<script>var tracking = "beacon";</script>
		<p>Visible content.</p>
	</body></html>`
	_, flat := Prepare(html)
	if strings.Contains(flat, "beacon") || strings.Contains(flat, "color:red") {
		t.Errorf("script/style content leaked into flattened text: %q", flat)
	}
	if !strings.Contains(flat, "Visible content.") {
		t.Errorf("visible content missing from flattened text: %q", flat)
	}
}

func TestLocateAllForForm(t *testing.T) {
	html := `<html><body>
		<a name="item1a"></a>
		<p>Risk factors include litigation and regulatory uncertainty that could materially and adversely affect our business, operating results, and financial condition.</p>
		<p>We face intense competition in every market segment.</p>
		<p>ITEM 2. PROPERTIES</p>
	</body></html>`
	doc, flat := Prepare(html)

	found := NewLocator().LocateAll(doc, flat, models.Form10K)
	if len(found) != 1 {
		t.Fatalf("expected exactly the one present section, got %d", len(found))
	}
	if found[0].Section != "Item1A" {
		t.Errorf("unexpected section: %s", found[0].Section)
	}
}
