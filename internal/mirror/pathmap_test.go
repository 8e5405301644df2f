package mirror

import (
	"net/url"
	"path"
	"testing"
)

func TestMapPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/", "index.html"},
		{"https://example.com", "index.html"},
		{"https://example.com/about", "about/index.html"},
		{"https://example.com/about/", "about/index.html"},
		{"https://example.com/about.html", "about.html"},
		{"https://example.com/css/style.css", "css/style.css"},
		{"https://example.com/blog/2024/post", "blog/2024/post/index.html"},
		{"https://example.com/v1.2/notes", "v1.2/notes/index.html"},
		{"https://example.com/img/my%20photo.png", "img/my photo.png"},
		{"https://example.com/%E6%97%A5%E6%9C%AC", "日本/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := MapPath(tt.input)
			if err != nil {
				t.Fatalf("MapPath(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("MapPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}

			again, _ := MapPath(tt.input)
			if again != got {
				t.Errorf("MapPath not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		expected string
	}{
		{"root to page", "https://example.com/", "https://example.com/about", "about/index.html"},
		{"root to asset", "https://example.com/", "https://example.com/style.css", "style.css"},
		{"root to nested asset", "https://example.com/", "https://example.com/css/site.css", "css/site.css"},
		{"page to root", "https://example.com/about", "https://example.com/", "../index.html"},
		{"page to sibling page", "https://example.com/about", "https://example.com/contact", "../contact/index.html"},
		{"same directory", "https://example.com/docs/a.html", "https://example.com/docs/b.html", "b.html"},
		{"deep to shallow", "https://example.com/a/b/c", "https://example.com/a/x.png", "../../x.png"},
		{"shared prefix", "https://example.com/a/b/page.html", "https://example.com/a/c/d.css", "../c/d.css"},
		{"self", "https://example.com/about", "https://example.com/about", "index.html"},
		{"keeps escapes", "https://example.com/", "https://example.com/img/my%20photo.png", "img/my%20photo.png"},
		{"other host", "https://example.com/", "https://cdn.example.net/lib.js", "https://cdn.example.net/lib.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativePath(tt.from, tt.to)
			if err != nil {
				t.Fatalf("RelativePath error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("RelativePath(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

// Following the relative reference from the source file's directory must
// land on the target's mapped file.
func TestRelativePathResolvesToMappedTarget(t *testing.T) {
	urls := []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/about/team",
		"https://example.com/style.css",
		"https://example.com/css/site.css",
		"https://example.com/css/fonts/a.woff",
		"https://example.com/blog/2024/01/post.html",
		"https://example.com/blog/2024/02/",
		"https://example.com/img/my%20photo.png",
		"https://example.com/a/b/c/d/e",
	}

	for _, from := range urls {
		for _, to := range urls {
			rel, err := RelativePath(from, to)
			if err != nil {
				t.Fatalf("RelativePath(%q, %q): %v", from, to, err)
			}

			fromMapped, _ := MapPath(from)
			want, _ := MapPath(to)

			resolved := path.Join(path.Dir(fromMapped), rel)
			decoded, err := url.PathUnescape(resolved)
			if err != nil {
				t.Fatalf("unescape %q: %v", resolved, err)
			}
			if decoded != want {
				t.Errorf("from %q to %q: rel %q resolves to %q, want %q", from, to, rel, decoded, want)
			}
		}
	}
}
