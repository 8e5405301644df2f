package parser

import (
	"strings"
	"testing"
)

func findAttr(t *testing.T, doc *Document, tag, key, original string) (string, string) {
	t.Helper()
	for _, ref := range doc.References() {
		if ref.node == nil || ref.node.Data != tag || ref.Raw != original {
			continue
		}
		val, _ := getAttr(ref.node, key)
		orig, _ := getAttr(ref.node, OriginalURLAttr)
		return val, orig
	}
	t.Fatalf("no <%s> with %s=%q", tag, key, original)
	return "", ""
}

func TestLinkRewriter(t *testing.T) {
	page := `<html><head>
<link rel="stylesheet" href="/css/site.css">
<script src="https://cdn.example.net/lib.js"></script>
<script src="//cdn.example.net/other.js"></script>
</head><body>
<a href="/about">About</a>
<a href="../index.html">Home</a>
<a href="#section">Section</a>
<a href="javascript:alert(1)">Alert</a>
<a href="https://other.com/">Other</a>
<a href="//other.example/x">Scheme relative</a>
<img src="/img/logo.png">
</body></html>`

	doc, err := Parse([]byte(page), "https://example.com/blog/post")
	if err != nil {
		t.Fatal(err)
	}

	rw := NewLinkRewriter("example.com", nil)
	n := rw.Rewrite(doc, "https://example.com/blog/post")
	if n != 4 {
		t.Errorf("rewritten = %d, want 4", n)
	}

	tests := []struct {
		tag, key, raw string
		wantVal       string
		wantOrig      string
	}{
		{"link", "href", "/css/site.css", "../../css/site.css", "https://example.com/css/site.css"},
		{"a", "href", "/about", "../../about/index.html", "https://example.com/about"},
		{"a", "href", "../index.html", "../../index.html", "https://example.com/index.html"},
		{"img", "src", "/img/logo.png", "../../img/logo.png", "https://example.com/img/logo.png"},
		{"script", "src", "https://cdn.example.net/lib.js", "https://cdn.example.net/lib.js", ""},
		{"script", "src", "//cdn.example.net/other.js", "https://cdn.example.net/other.js", ""},
		{"a", "href", "https://other.com/", "https://other.com/", ""},
		{"a", "href", "//other.example/x", "https://other.example/x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			val, orig := findAttr(t, doc, tt.tag, tt.key, tt.raw)
			if val != tt.wantVal {
				t.Errorf("%s = %q, want %q", tt.key, val, tt.wantVal)
			}
			if orig != tt.wantOrig {
				t.Errorf("%s = %q, want %q", OriginalURLAttr, orig, tt.wantOrig)
			}
		})
	}

	out, err := doc.Render()
	if err != nil {
		t.Fatal(err)
	}
	rendered := string(out)
	for _, untouched := range []string{`href="#section"`, `href="javascript:alert(1)"`} {
		if !strings.Contains(rendered, untouched) {
			t.Errorf("expected %s to be left untouched in %s", untouched, rendered)
		}
	}
}

func TestLinkRewriterCanonicalizesTargets(t *testing.T) {
	page := `<a href="/home-v2/index.html">v2</a><a href="/home-pages/home-v2">pretty</a>`
	doc, err := Parse([]byte(page), "https://demo.webflow.io/")
	if err != nil {
		t.Fatal(err)
	}

	NewLinkRewriter("demo.webflow.io", nil).Rewrite(doc, "https://demo.webflow.io/")

	for _, ref := range doc.References() {
		val, _ := getAttr(ref.node, "href")
		if val != "home-pages/home-v2/index.html" {
			t.Errorf("href %q rewritten to %q", ref.Raw, val)
		}
	}
}

func TestLinkRewriterReplacesExistingOriginalAttr(t *testing.T) {
	page := `<a href="/x" data-original-url="stale">x</a>`
	doc, err := Parse([]byte(page), "https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	NewLinkRewriter("example.com", nil).Rewrite(doc, "https://example.com/")

	node := doc.References()[0].node
	count := 0
	for _, a := range node.Attr {
		if a.Key == OriginalURLAttr {
			count++
			if a.Val != "https://example.com/x" {
				t.Errorf("%s = %q", OriginalURLAttr, a.Val)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one %s attribute, got %d", OriginalURLAttr, count)
	}
}
