package parser

import (
	"reflect"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title> Sample Page </title>
	<link rel="stylesheet" href="/css/site.css">
	<link rel="icon" href="/favicon.ico">
	<link rel="alternate stylesheet" href="alt.css">
	<script src="js/app.js"></script>
	<script>var inline = true;</script>
	<style>
		body { background: url("img/bg.png"); }
		.logo { background-image: url('data:image/png;base64,AAAA'); }
	</style>
</head>
<body>
	<a href="/about">About</a>
	<a href="#top">Top</a>
	<a href="javascript:void(0)">JS</a>
	<a href="mailto:hi@example.com">Mail</a>
	<a href="https://other.com/page">External</a>
	<a href="">Empty</a>
	<img src="photo.jpg">
	<img src="data:image/gif;base64,R0lGOD">
</body>
</html>`

func TestParseCollectsReferences(t *testing.T) {
	doc, err := Parse([]byte(samplePage), "https://example.com/docs/")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Title() != "Sample Page" {
		t.Errorf("Title = %q, want %q", doc.Title(), "Sample Page")
	}

	wantLinks := []string{
		"https://example.com/about",
		"https://other.com/page",
	}
	if got := doc.Links(); !reflect.DeepEqual(got, wantLinks) {
		t.Errorf("Links = %v, want %v", got, wantLinks)
	}

	wantAssets := []string{
		"https://example.com/css/site.css",
		"https://example.com/docs/alt.css",
		"https://example.com/docs/js/app.js",
		"https://example.com/docs/img/bg.png",
		"https://example.com/docs/photo.jpg",
	}
	if got := doc.Assets(); !reflect.DeepEqual(got, wantAssets) {
		t.Errorf("Assets = %v, want %v", got, wantAssets)
	}
}

func TestParseKinds(t *testing.T) {
	doc, err := Parse([]byte(samplePage), "https://example.com/")
	if err != nil {
		t.Fatal(err)
	}

	counts := make(map[RefKind]int)
	for _, ref := range doc.References() {
		counts[ref.Kind]++
	}

	expected := map[RefKind]int{
		KindLink:       2,
		KindStylesheet: 2,
		KindScript:     1,
		KindImage:      1,
		KindStyleURL:   1,
	}
	if !reflect.DeepEqual(counts, expected) {
		t.Errorf("reference kinds = %v, want %v", counts, expected)
	}
}

func TestParseInvalidBaseURL(t *testing.T) {
	if _, err := Parse([]byte("<html></html>"), "://bad"); err == nil {
		t.Error("expected error for invalid base URL")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(`<p>hello <b>world</b></p>`), "https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	out, err := doc.Render()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "<p>hello <b>world</b></p>") {
		t.Errorf("rendered output missing body: %s", out)
	}
}
