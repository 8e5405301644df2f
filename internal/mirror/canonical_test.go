package mirror

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips fragment", "https://example.com/about#team", "https://example.com/about"},
		{"strips query", "https://example.com/search?q=go", "https://example.com/search"},
		{"empty path becomes root", "https://example.com", "https://example.com/"},
		{"root stays root", "https://example.com/", "https://example.com/"},
		{"drops index suffix", "https://example.com/docs/index.html", "https://example.com/docs"},
		{"root index collapses to root", "https://example.com/index.html", "https://example.com/"},
		{"keeps trailing slash", "https://example.com/docs/", "https://example.com/docs/"},
		{"keeps other files", "https://example.com/css/style.css", "https://example.com/css/style.css"},
		{"keeps escapes", "https://example.com/my%20page", "https://example.com/my%20page"},
		{"keeps port", "http://127.0.0.1:8080/a", "http://127.0.0.1:8080/a"},
		{"webflow home", "https://site.webflow.io/home-v2/index.html", "https://site.webflow.io/home-pages/home-v2"},
		{"webflow blog", "https://site.webflow.io/blog-v3/index.html", "https://site.webflow.io/blog-pages/blog-v3"},
		{"webflow contact", "https://site.webflow.io/contact-v1/index.html", "https://site.webflow.io/contact-pages/contact-v1"},
		{"webflow generic index", "https://site.webflow.io/about/index.html", "https://site.webflow.io/about"},
		{"table only for generator hosts", "https://example.com/home-v2/index.html", "https://example.com/home-v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if err != nil {
				t.Fatalf("Canonicalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalizeRejectsRelative(t *testing.T) {
	for _, input := range []string{"/about", "about.html", "://bad"} {
		if _, err := Canonicalize(input); err == nil {
			t.Errorf("Canonicalize(%q) expected error, got nil", input)
		}
	}
}

func TestCanonicalizeWebflowFormsCollapse(t *testing.T) {
	generated, err := Canonicalize("https://demo.webflow.io/home-v2/index.html")
	if err != nil {
		t.Fatal(err)
	}
	pretty, err := Canonicalize("https://demo.webflow.io/home-pages/home-v2#hero")
	if err != nil {
		t.Fatal(err)
	}
	if generated != pretty {
		t.Errorf("expected both forms to collapse, got %q and %q", generated, pretty)
	}

	p, err := MapPath(generated)
	if err != nil {
		t.Fatal(err)
	}
	if p != "home-pages/home-v2/index.html" {
		t.Errorf("MapPath(%q) = %q", generated, p)
	}
}

func TestCustomSiteRewrites(t *testing.T) {
	c := NewCanonicalizer([]SiteRewrite{
		{HostSuffix: "example.org", Rules: []PathRewrite{{From: "/old/index.html", To: "/new"}}},
	})

	got, err := c.Canonicalize("https://www.example.org/old/index.html?x=1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://www.example.org/new" {
		t.Errorf("got %q, want %q", got, "https://www.example.org/new")
	}
}
