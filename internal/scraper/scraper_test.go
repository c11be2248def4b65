package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const articlePage = `<html><head><title>Site Name</title></head><body>
<h1>Model Release Notes</h1>
<article>
<p>The new model ships with a larger context window and better tool use.</p>
<p>Subscribe to our newsletter for more updates like this one.</p>
<p>Benchmarks show a clear improvement over the previous generation.</p>
<p>Pricing stays unchanged for existing API customers this quarter.</p>
</article>
</body></html>`

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	got, err := New(5*time.Second).Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Title != "Model Release Notes" {
		t.Errorf("title = %q", got.Title)
	}
	if strings.Contains(got.Content, "newsletter") {
		t.Errorf("boilerplate line kept: %q", got.Content)
	}
	if !strings.Contains(got.Content, "larger context window") ||
		!strings.Contains(got.Content, "Pricing stays unchanged") {
		t.Errorf("paragraphs missing from content: %q", got.Content)
	}
}

func TestExtractNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div>nav</div></body></html>`)
	}))
	defer srv.Close()

	if _, err := New(5*time.Second).Extract(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for page without paragraphs")
	}
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := New(5*time.Second).Extract(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestCleanContentCapsAtParagraphs(t *testing.T) {
	long := strings.Repeat("word ", 120) // ~600 chars per paragraph
	content := strings.TrimSpace(strings.Repeat(long+"\n", 6))
	got := cleanContent(content)
	if len(got) > maxExcerpt {
		t.Errorf("len = %d, want <= %d", len(got), maxExcerpt)
	}
	if !strings.HasSuffix(strings.TrimSpace(got), "word") {
		t.Errorf("cap cut mid-paragraph: %q", got[len(got)-20:])
	}
}
