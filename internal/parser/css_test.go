package parser

import (
	"reflect"
	"testing"
)

func TestExtractCSSURLs(t *testing.T) {
	tests := []struct {
		name     string
		css      string
		expected []string
	}{
		{
			name:     "quoted and unquoted",
			css:      `a { background: url("img/a.png"); } b { background: url('img/b.png'); } c { background: url(img/c.png); }`,
			expected: []string{"img/a.png", "img/b.png", "img/c.png"},
		},
		{
			name:     "skips data urls",
			css:      `@font-face { src: url("fonts/a.woff") format("woff"), url('data:image/png;base64,iVBORw0KGgo'); }`,
			expected: []string{"fonts/a.woff"},
		},
		{
			name:     "inner whitespace",
			css:      `x { background: url(  "spaced.png"  ); }`,
			expected: []string{"spaced.png"},
		},
		{
			name:     "deduplicates",
			css:      `a { background: url(x.png) } b { background: url("x.png") }`,
			expected: []string{"x.png"},
		},
		{
			name:     "imports",
			css:      `@import "base.css"; @import url("theme.css");`,
			expected: []string{"theme.css", "base.css"},
		},
		{
			name:     "no urls",
			css:      `body { color: red; }`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCSSURLs(tt.css)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractCSSURLs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestResolveCSSURLs(t *testing.T) {
	css := `@font-face { src: url("fonts/a.woff"); }
body { background: url('data:image/png;base64,AAAA'); }
.hero { background: url(/img/hero.jpg); }
.cdn { background: url(https://cdn.example.net/x.png); }`

	got := ResolveCSSURLs(css, "https://example.com/css/site.css")
	want := []string{
		"https://example.com/css/fonts/a.woff",
		"https://example.com/img/hero.jpg",
		"https://cdn.example.net/x.png",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveCSSURLs() = %v, want %v", got, want)
	}
}
