package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/datacube/aihub/internal/model"
)

// mockCompleter returns a canned response, or err if set.
type mockCompleter struct {
	response string
	err      error
	prompts  []string
}

func (m *mockCompleter) Complete(_ context.Context, _ string, prompt string, _ float32) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func rawArticles(n int) []model.RawArticle {
	articles := make([]model.RawArticle, n)
	for i := range articles {
		articles[i] = model.RawArticle{
			Title:           "Article " + string(rune('A'+i)),
			Link:            "https://example.com/" + string(rune('a'+i)),
			Source:          "TechCrunch AI",
			OriginalSection: "tech",
		}
	}
	return articles
}

func TestClassifyArticles(t *testing.T) {
	mock := &mockCompleter{response: `[
		{"index": 0, "section": "tech", "relevance": 0.4, "duplicate_of": null},
		{"index": 1, "section": "investment", "relevance": 0.9, "duplicate_of": null},
		{"index": 2, "section": "tech", "relevance": 0.8, "duplicate_of": 0}
	]`}
	p := NewProcessor(mock, "classifier", "processor")

	got := p.ClassifyArticles(context.Background(), rawArticles(3))
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2 (duplicate dropped)", len(got))
	}
	if got[0].Section != "investment" || got[0].Relevance != 0.9 {
		t.Errorf("expected highest relevance first, got %+v", got[0])
	}
	if got[1].Section != "tech" || got[1].Relevance != 0.4 {
		t.Errorf("unexpected second article %+v", got[1])
	}
}

func TestClassifyArticlesStringIndices(t *testing.T) {
	mock := &mockCompleter{response: `[{"index": "0", "section": "tips", "relevance": 0.7, "duplicate_of": null}]`}
	p := NewProcessor(mock, "classifier", "processor")

	got := p.ClassifyArticles(context.Background(), rawArticles(1))
	if len(got) != 1 || got[0].Section != "tips" {
		t.Fatalf("got %+v", got)
	}
}

func TestClassifyArticlesMissingEntryFallsBack(t *testing.T) {
	mock := &mockCompleter{response: `[{"index": 0, "section": "tech", "relevance": 0.9, "duplicate_of": null}]`}
	p := NewProcessor(mock, "classifier", "processor")

	articles := rawArticles(2)
	articles[1].OriginalSection = "investment"
	got := p.ClassifyArticles(context.Background(), articles)
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	// The unclassified article keeps its hint with relevance 0.5.
	var hinted *model.RawArticle
	for i := range got {
		if got[i].Relevance == 0.5 {
			hinted = &got[i]
		}
	}
	if hinted == nil || hinted.Section != "investment" {
		t.Errorf("expected hint fallback, got %+v", got)
	}
}

func TestClassifyArticlesCallFailure(t *testing.T) {
	mock := &mockCompleter{err: errors.New("quota exhausted")}
	p := NewProcessor(mock, "classifier", "processor")

	got := p.ClassifyArticles(context.Background(), rawArticles(2))
	if len(got) != 2 {
		t.Fatalf("got %d articles, want all retained", len(got))
	}
	for _, a := range got {
		if a.Section != "tech" || a.Relevance != 0.5 {
			t.Errorf("expected hint fallback for %+v", a)
		}
	}
}

func TestClassifyArticlesEmpty(t *testing.T) {
	mock := &mockCompleter{}
	p := NewProcessor(mock, "classifier", "processor")
	if got := p.ClassifyArticles(context.Background(), nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
	if len(mock.prompts) != 0 {
		t.Error("expected no model call for empty input")
	}
}

func TestProcessTechArticles(t *testing.T) {
	mock := &mockCompleter{response: `{
		"de": [{"id": 1, "content": "Deutsche Zusammenfassung", "iconType": "Brain", "impact": "high", "metrics": {"views": 1200}}],
		"en": [{"id": 1, "content": "English summary", "iconType": "Brain", "impact": "high", "metrics": {"views": "1200"}}]
	}`}
	p := NewProcessor(mock, "classifier", "processor")

	got, err := p.ProcessTechArticles(context.Background(), rawArticles(3), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.DE) != 1 || len(got.EN) != 1 {
		t.Fatalf("got %d/%d items", len(got.DE), len(got.EN))
	}
	// Numeric and string view counts both normalize to strings.
	if got.DE[0].Metrics.Views != "1200" || got.EN[0].Metrics.Views != "1200" {
		t.Errorf("views not normalized: %q / %q", got.DE[0].Metrics.Views, got.EN[0].Metrics.Views)
	}
}

func TestProcessTechArticlesMalformedResponse(t *testing.T) {
	mock := &mockCompleter{response: "I could not produce JSON for this request."}
	p := NewProcessor(mock, "classifier", "processor")

	got, err := p.ProcessTechArticles(context.Background(), rawArticles(3), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.DE == nil || got.EN == nil || len(got.DE) != 0 || len(got.EN) != 0 {
		t.Errorf("expected typed-empty fallback, got %+v", got)
	}
}

func TestProcessTechArticlesCallError(t *testing.T) {
	mock := &mockCompleter{err: errors.New("deadline exceeded")}
	p := NewProcessor(mock, "classifier", "processor")

	got, err := p.ProcessTechArticles(context.Background(), rawArticles(1), 2)
	if err == nil {
		t.Fatal("expected error")
	}
	if got.DE == nil || got.EN == nil {
		t.Error("result must stay typed-empty on error")
	}
}

func TestProcessTechArticlesInputCap(t *testing.T) {
	mock := &mockCompleter{response: `{"de": [], "en": []}`}
	p := NewProcessor(mock, "classifier", "processor")

	articles := make([]model.RawArticle, 60)
	for i := range articles {
		articles[i] = model.RawArticle{Title: "t", Link: "https://example.com", Source: "Src"}
	}
	if _, err := p.ProcessTechArticles(context.Background(), articles, 10); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(mock.prompts[0], "Title: t"); n != maxTechInput {
		t.Errorf("prompt contains %d articles, want %d", n, maxTechInput)
	}
}

func TestProcessInvestmentArticlesPartialResponse(t *testing.T) {
	// Only primaryMarket present; the other categories must stay
	// typed-empty rather than nil.
	mock := &mockCompleter{response: `{
		"primaryMarket": {"de": [{"id": 1, "company": "Anthropic", "amount": "$2 Mrd."}], "en": [{"id": 1, "company": "Anthropic", "amount": "$2B"}]}
	}`}
	p := NewProcessor(mock, "classifier", "processor")

	got, err := p.ProcessInvestmentArticles(context.Background(), rawArticles(2), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.PrimaryMarket.DE) != 1 || got.PrimaryMarket.DE[0].Company != "Anthropic" {
		t.Errorf("primary market not decoded: %+v", got.PrimaryMarket)
	}
	if got.SecondaryMarket.DE == nil || got.MA.EN == nil {
		t.Error("absent categories must stay typed-empty")
	}
}

func TestProcessTipsArticlesDefaults(t *testing.T) {
	mock := &mockCompleter{response: `{
		"de": [{"content": "Nutze Systemprompts", "tip": "Definiere eine Rolle", "category": "Prompt-Tipps", "platform": "Reddit"}],
		"en": [{"content": "Use system prompts", "tip": "Define a role", "category": "Prompt Tips", "platform": "Reddit"}]
	}`}
	p := NewProcessor(mock, "classifier", "processor")

	got, err := p.ProcessTipsArticles(context.Background(), rawArticles(2), 1)
	if err != nil {
		t.Fatal(err)
	}
	de, en := got.DE[0], got.EN[0]
	if de.ID != 1 || en.ID != 1 {
		t.Errorf("ids not filled: %d / %d", de.ID, en.ID)
	}
	if de.Difficulty != "Mittel" || en.Difficulty != "Intermediate" {
		t.Errorf("difficulty defaults wrong: %q / %q", de.Difficulty, en.Difficulty)
	}
	if de.Author.Name == "" || de.Metrics.Views != "0" {
		t.Errorf("author/metrics defaults missing: %+v", de)
	}
}

func TestProcessVideos(t *testing.T) {
	mock := &mockCompleter{response: `{
		"de": [{"video_id": "abc123", "title": "KI erklärt", "summary": "Kurz", "category": "Bildung"}],
		"en": [{"video_id": "abc123", "title": "AI explained", "summary": "Short", "category": "Education"}]
	}`}
	p := NewProcessor(mock, "classifier", "processor")

	videos := []model.RawVideo{{VideoID: "abc123", Title: "AI explained", ChannelName: "Two Minute Papers"}}
	got, err := p.ProcessVideos(context.Background(), videos, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.DE) != 1 || got.DE[0].VideoID != "abc123" {
		t.Errorf("got %+v", got.DE)
	}
}

func TestGenerateTrends(t *testing.T) {
	mock := &mockCompleter{response: `{
		"trends": {
			"de": [{"category": "KI · Trend", "title": "Agentische Systeme"}],
			"en": [{"category": "AI · Trending", "title": "Agentic Systems"}]
		}
	}`}
	p := NewProcessor(mock, "classifier", "processor")

	tech := model.Bilingual[model.TechItem]{EN: []model.TechItem{{Content: "Agents everywhere"}}}
	got, err := p.GenerateTrends(context.Background(), tech, EmptyInvestmentResult())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Trends.EN) != 1 || got.Trends.EN[0].Title != "Agentic Systems" {
		t.Errorf("got %+v", got.Trends)
	}
}

func TestGenerateTrendsEmptyInputSkipsCall(t *testing.T) {
	mock := &mockCompleter{}
	p := NewProcessor(mock, "classifier", "processor")

	got, err := p.GenerateTrends(context.Background(), model.Bilingual[model.TechItem]{}, EmptyInvestmentResult())
	if err != nil {
		t.Fatal(err)
	}
	if len(mock.prompts) != 0 {
		t.Error("expected no model call for empty content")
	}
	if got.Trends.DE == nil || got.Trends.EN == nil {
		t.Error("result must be typed-empty")
	}
}

func TestSanitizeTipLine(t *testing.T) {
	got := sanitizeTipLine("line\none\t\"quoted\"  spaced")
	if strings.ContainsAny(got, "\n\t\"\\") {
		t.Errorf("unsafe characters survived: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("whitespace not collapsed: %q", got)
	}
}
