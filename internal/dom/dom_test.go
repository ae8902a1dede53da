package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestParseFragmentReturnsFirstElement(t *testing.T) {
	n, err := ParseFragment("  <div id=\"root\"><span>hi</span></div>")
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	if n.Data != "div" {
		t.Fatalf("expected div, got %s", n.Data)
	}
	if id, _ := Attr(n, "id"); id != "root" {
		t.Fatalf("expected id root, got %q", id)
	}
}

func TestParseFragmentWithoutElementFails(t *testing.T) {
	if _, err := ParseFragment("just text"); err == nil {
		t.Fatalf("expected error for element-free markup")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	n, err := ParseFragment(`<div class="row"><input name="qty"/></div>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := Render(n)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `class="row"`) || !strings.Contains(out, `name="qty"`) {
		t.Fatalf("unexpected render output: %s", out)
	}
}

func TestAttrHelpers(t *testing.T) {
	n := NewElement("input")
	if _, ok := Attr(n, "type"); ok {
		t.Fatalf("expected no type attribute")
	}
	SetAttr(n, "type", "number")
	SetAttr(n, "type", "text")
	if got := AttrOr(n, "type", ""); got != "text" {
		t.Fatalf("expected replaced value text, got %q", got)
	}
	if len(n.Attr) != 1 {
		t.Fatalf("SetAttr duplicated the attribute: %v", n.Attr)
	}
	RemoveAttr(n, "type")
	if _, ok := Attr(n, "type"); ok {
		t.Fatalf("expected attribute removed")
	}
}

func TestClassHelpers(t *testing.T) {
	n := NewElement("div")
	AddClass(n, "a")
	AddClass(n, "b")
	AddClass(n, "a")
	if got := AttrOr(n, "class", ""); got != "a b" {
		t.Fatalf("expected classes 'a b', got %q", got)
	}
	if !HasClass(n, "b") {
		t.Fatalf("expected class b present")
	}
	RemoveClass(n, "a")
	if HasClass(n, "a") || !HasClass(n, "b") {
		t.Fatalf("unexpected classes after remove: %q", AttrOr(n, "class", ""))
	}
	RemoveClass(n, "b")
	if _, ok := Attr(n, "class"); ok {
		t.Fatalf("expected class attribute dropped when empty")
	}
	ToggleClass(n, "on", true)
	ToggleClass(n, "on", false)
	if HasClass(n, "on") {
		t.Fatalf("toggle off failed")
	}
}

func TestWalkIsInclusiveAndOrdered(t *testing.T) {
	root, err := ParseFragment(`<div><p><b>x</b></p><span>y</span></div>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var tags []string
	Walk(root, func(n *html.Node) { tags = append(tags, n.Data) })
	want := []string{"div", "p", "b", "span"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tags)
		}
	}
}

func TestMatchesSelectorForms(t *testing.T) {
	n, err := ParseFragment(`<button id="save" class="btn js-save" name="save-btn">Save</button>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cases := []struct {
		selector string
		want     bool
	}{
		{"#save", true},
		{"#other", false},
		{".js-save", true},
		{".missing", false},
		{`[name=save-btn]`, true},
		{`[name="save-btn"]`, true},
		{`[name=wrong]`, false},
		{`[disabled]`, false},
		{"button", true},
		{"div", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Matches(n, tc.selector); got != tc.want {
			t.Fatalf("Matches(%q) = %v, want %v", tc.selector, got, tc.want)
		}
	}
}

func TestClosestStopsAtBoundary(t *testing.T) {
	root, err := ParseFragment(`<div class="outer"><div class="row"><span id="leaf">x</span></div></div>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	leaf := First(root, "#leaf")
	if leaf == nil {
		t.Fatalf("leaf not found")
	}
	row := Closest(leaf, root, ".row")
	if row == nil || !HasClass(row, "row") {
		t.Fatalf("expected row ancestor")
	}
	inner := First(root, ".row")
	if got := Closest(leaf, inner, ".outer"); got != nil {
		t.Fatalf("expected boundary to stop the walk, got %v", got.Data)
	}
}

func TestDetachAndReindexableText(t *testing.T) {
	root, err := ParseFragment(`<div><span>a</span><span>b</span></div>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	spans := Select(root, "span")
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	Detach(spans[0])
	if got := Text(root); got != "b" {
		t.Fatalf("expected text b after detach, got %q", got)
	}
	SetText(spans[1], "c")
	if got := Text(root); got != "c" {
		t.Fatalf("expected replaced text c, got %q", got)
	}
}
