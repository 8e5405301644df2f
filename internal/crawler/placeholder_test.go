package crawler

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusPlaceholder(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		wantOK      bool
		contains    []string
	}{
		{"css by extension", "https://example.com/css/site.css", "text/html", true, []string{"/* This is a placeholder for a CSS file that could not be downloaded */"}},
		{"css by content type", "https://example.com/theme", "text/css; charset=utf-8", true, []string{"CSS file"}},
		{"script", "https://example.com/js/app.js", "", true, []string{"// This is a placeholder for a JavaScript file that could not be downloaded"}},
		{"image", "https://example.com/img/missing.png", "text/html", true, []string{"<svg", `width="200"`, `height="150"`, "Image Not Found", "missing.png"}},
		{"uppercase extension", "https://example.com/img/PHOTO.JPG", "", true, []string{"Image Not Found", "PHOTO.JPG"}},
		{"image by content type", "https://example.com/avatar", "image/webp", true, []string{"Image Not Found", "avatar"}},
		{"font has no placeholder", "https://example.com/fonts/a.woff2", "font/woff2", false, nil},
		{"icon has no placeholder", "https://example.com/favicon.ico", "text/html", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ok := StatusPlaceholder(tt.url, tt.contentType)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			for _, want := range tt.contains {
				if !strings.Contains(string(body), want) {
					t.Errorf("placeholder %q does not contain %q", body, want)
				}
			}
		})
	}
}

func TestTransportPlaceholder(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:443: connect: connection refused")

	css, ok := TransportPlaceholder("https://example.com/a.css", cause)
	if !ok || !strings.Contains(string(css), "could not be downloaded due to an error") {
		t.Errorf("css placeholder = %q, %v", css, ok)
	}

	js, ok := TransportPlaceholder("https://example.com/a.js", cause)
	if !ok || !strings.Contains(string(js), "JavaScript file that could not be downloaded due to an error") {
		t.Errorf("js placeholder = %q, %v", js, ok)
	}

	img, ok := TransportPlaceholder("https://example.com/logo.gif", cause)
	if !ok {
		t.Fatal("expected image placeholder")
	}
	if !strings.Contains(string(img), "Error: dial tcp 10.0.0.1:443: connect") {
		t.Errorf("image placeholder should carry the truncated error: %q", img)
	}
	if strings.Contains(string(img), "connection refused") {
		t.Errorf("error text should be cut to 30 characters: %q", img)
	}

	if _, ok := TransportPlaceholder("https://example.com/favicon.ico", cause); ok {
		t.Error("icons are not among the placeholder image types")
	}

	if _, ok := TransportPlaceholder("https://example.com/style", cause); ok {
		t.Error("content type is not consulted after a transport error")
	}
}

func TestImagePlaceholderEscapesName(t *testing.T) {
	body, _ := StatusPlaceholder("https://example.com/img/%3Cb%3E.png", "")
	if strings.Contains(string(body), "<b>") {
		t.Errorf("file name not escaped: %q", body)
	}
	if !strings.Contains(string(body), "&lt;b&gt;.png") {
		t.Errorf("escaped file name missing: %q", body)
	}
}

func TestErrorPages(t *testing.T) {
	page := string(StatusErrorPage("https://example.com/gone?x=<1>", 410))
	for _, want := range []string{"<title>Error Accessing Page</title>", "Status Code:</strong> 410", "Original Path:</strong> /gone", "https://example.com/gone?x=&lt;1&gt;"} {
		if !strings.Contains(page, want) {
			t.Errorf("status page missing %q:\n%s", want, page)
		}
	}

	page = string(ProcessingErrorPage("https://example.com/", errors.New("bad <markup>")))
	for _, want := range []string{"<title>Error Processing Page</title>", "Error:</strong> bad &lt;markup&gt;"} {
		if !strings.Contains(page, want) {
			t.Errorf("processing page missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(page, "Status Code") {
		t.Errorf("processing page should not show a status code")
	}
}
