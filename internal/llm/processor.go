package llm

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/datacube/aihub/internal/logger"
	"github.com/datacube/aihub/internal/model"
)

// Prompt input caps per section.
const (
	maxTechInput       = 40
	maxInvestmentInput = 40
	maxTipsInput       = 15
	maxVideoInput      = 20
	maxTrendContext    = 30
)

// Processor runs the LLM-driven stages against a Completer. One
// Processor per concurrent task: it inherits the Completer's
// no-shared-use contract.
type Processor struct {
	c               Completer
	classifierModel string
	processorModel  string
}

func NewProcessor(c Completer, classifierModel, processorModel string) *Processor {
	return &Processor{c: c, classifierModel: classifierModel, processorModel: processorModel}
}

// flexInt tolerates models emitting indices as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("not an int: %q", string(data))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type classification struct {
	Index       flexInt  `json:"index"`
	Section     string   `json:"section"`
	Relevance   float64  `json:"relevance"`
	DuplicateOf *flexInt `json:"duplicate_of"`
}

// ClassifyArticles assigns each article a section and relevance score
// in a single model call and drops flagged near-duplicates. It never
// fails: articles missing from the response, and the whole batch when
// the response does not parse, fall back to the original_section hint
// with relevance 0.5.
func (p *Processor) ClassifyArticles(ctx context.Context, articles []model.RawArticle) []model.RawArticle {
	if len(articles) == 0 {
		return nil
	}

	var entries []string
	for i, a := range articles {
		hint := a.OriginalSection
		if hint == "" {
			hint = "unknown"
		}
		entries = append(entries, fmt.Sprintf("[%d] Source: %s (hint: %s)\n    Title: %s\n    Summary: %s",
			i, a.Source, hint, a.Title, truncate(a.Summary, 300)))
	}

	prompt := fmt.Sprintf(`You are an AI news classifier for a bilingual (German/English) weekly newsletter.

Your task: classify each article into EXACTLY ONE section.

SECTION DEFINITIONS:
- "tech": AI technology breakthroughs, new models, research papers, product launches, technical infrastructure.
- "investment": Funding rounds, venture capital, IPOs, stock movements of AI companies, M&A deals.
- "tips": Practical AI usage tips, prompt engineering, productivity workflows, tool tutorials.

ARTICLES:
%s

Output a JSON array with one entry per article:
[{"index": 0, "section": "tech", "relevance": 0.9, "duplicate_of": null}]

Fields:
- index: article index
- section: "tech" | "investment" | "tips"
- relevance: 0.0-1.0 how relevant/important
- duplicate_of: index of better article covering same event, or null

Output ONLY the JSON array, no markdown fences.`, strings.Join(entries, "\n\n"))

	byIndex := map[int]classification{}
	parsed := false

	response, err := p.c.Complete(ctx, p.classifierModel, prompt, 0.1)
	if err != nil {
		logger.Warn("classification call failed, using hints", "error", err)
	} else {
		var classifications []classification
		if Decode(response, &classifications) {
			parsed = true
			for _, c := range classifications {
				byIndex[int(c.Index)] = c
			}
		} else {
			logger.Warn("could not parse classification response, using hints")
		}
	}

	classified := make([]model.RawArticle, 0, len(articles))
	for i, a := range articles {
		c, ok := byIndex[i]
		if !parsed || !ok {
			a.Section = fallbackSection(a.OriginalSection)
			a.Relevance = 0.5
			classified = append(classified, a)
			continue
		}
		if c.DuplicateOf != nil {
			continue
		}
		a.Section = c.Section
		a.Relevance = c.Relevance
		classified = append(classified, a)
	}

	sort.SliceStable(classified, func(i, j int) bool {
		return classified[i].Relevance > classified[j].Relevance
	})
	return classified
}

func fallbackSection(hint string) string {
	if hint == "" {
		return "tech"
	}
	return hint
}

// ProcessTechArticles turns the top tech articles into bilingual feed
// posts. A malformed response degrades to the typed-empty result; only
// the model call itself can error.
func (p *Processor) ProcessTechArticles(ctx context.Context, articles []model.RawArticle, count int) (model.Bilingual[model.TechItem], error) {
	result := model.Bilingual[model.TechItem]{DE: []model.TechItem{}, EN: []model.TechItem{}}
	if len(articles) == 0 {
		return result, nil
	}

	prompt := fmt.Sprintf(`You are a tech news editor for a German/English bilingual AI newsletter.
Target audience: Non-technical professionals who want to stay informed about AI.

From the following articles, select EXACTLY %d of the most important/interesting ones.

ARTICLES:
%s

Output a JSON object with this structure:
{
  "de": [
    {
      "id": 1,
      "author": {"name": "Source Name", "handle": "@source", "avatar": "XX", "verified": true},
      "content": "German summary (2-3 sentences, non-technical)",
      "tags": ["Tag1", "Tag2", "Tag3"],
      "category": "Category name in German",
      "iconType": "Brain|Server|Zap|Cpu",
      "impact": "critical|high|medium|low",
      "timestamp": "YYYY-MM-DD",
      "metrics": {"comments": 0, "retweets": 0, "likes": 0, "views": "0"},
      "source": "Source Name",
      "sourceUrl": "https://original-article-url"
    }
  ],
  "en": []
}
The "en" array has the same structure with English content.

Rules:
- iconType: Brain (LLM/AI models), Server (infrastructure), Zap (research), Cpu (safety/technical)
- impact: critical (industry-changing), high (significant), medium (notable), low (informational)
- source: Copy the original source name from the article
- sourceUrl: Copy the exact Link URL from the original article
- Output ONLY valid JSON`, count, articleBlock(articles, maxTechInput))

	response, err := p.c.Complete(ctx, p.processorModel, prompt, 0.3)
	if err != nil {
		return result, err
	}
	Decode(response, &result)
	return result, nil
}

// ProcessVideos summarizes the best videos bilingually.
func (p *Processor) ProcessVideos(ctx context.Context, videos []model.RawVideo, count int) (model.Bilingual[model.VideoItem], error) {
	result := model.Bilingual[model.VideoItem]{DE: []model.VideoItem{}, EN: []model.VideoItem{}}
	if len(videos) == 0 {
		return result, nil
	}

	var blocks []string
	for _, v := range videos {
		if len(blocks) >= maxVideoInput {
			break
		}
		blocks = append(blocks, fmt.Sprintf("VideoID: %s\nTitle: %s\nChannel: %s\nViews: %s\nDuration: %s\nDescription: %s",
			v.VideoID, v.Title, v.ChannelName, v.ViewCountFormatted, v.DurationFormatted, truncate(v.Description, 300)))
	}

	prompt := fmt.Sprintf(`You are a video content curator for a German/English bilingual AI newsletter.
Target audience: Non-technical professionals interested in AI.

From these videos, select the %d most valuable and relevant ones.
Create bilingual summaries for each.

VIDEOS:
%s

Output a JSON object:
{
  "de": [
    {"video_id": "XXXXX", "title": "German title", "summary": "German summary (2-3 sentences)", "category": "Category in German"}
  ],
  "en": [
    {"video_id": "XXXXX", "title": "English title", "summary": "English summary (2-3 sentences)", "category": "Category in English"}
  ]
}

Select videos that explain AI concepts clearly, provide practical
tutorials, cover important news, or come from reputable channels.

Output ONLY valid JSON.`, count, strings.Join(blocks, "\n\n"))

	response, err := p.c.Complete(ctx, p.processorModel, prompt, 0.3)
	if err != nil {
		return result, err
	}
	Decode(response, &result)
	return result, nil
}

// EmptyInvestmentResult is the typed-empty fallback for the investment
// task.
func EmptyInvestmentResult() model.InvestmentResult {
	return model.InvestmentResult{
		PrimaryMarket:   model.Bilingual[model.FundingItem]{DE: []model.FundingItem{}, EN: []model.FundingItem{}},
		SecondaryMarket: model.Bilingual[model.SecondaryItem]{DE: []model.SecondaryItem{}, EN: []model.SecondaryItem{}},
		MA:              model.Bilingual[model.MAItem]{DE: []model.MAItem{}, EN: []model.MAItem{}},
	}
}

// ProcessInvestmentArticles splits investment articles into primary
// market, secondary market and M&A posts.
func (p *Processor) ProcessInvestmentArticles(ctx context.Context, articles []model.RawArticle, count int) (model.InvestmentResult, error) {
	result := EmptyInvestmentResult()
	if len(articles) == 0 {
		return result, nil
	}

	prompt := fmt.Sprintf(`You are a financial news editor for a German/English bilingual AI investment newsletter.
Content may be in English OR Chinese - process both languages equally.

Categorize these articles into:
1. Primary Market (funding rounds, venture capital investments)
2. Secondary Market (stock price movements, IPOs, public company news)
3. M&A (mergers, acquisitions, buyouts)

ARTICLES:
%s

Output a JSON object with this EXACT structure:
{
  "primaryMarket": {
    "de": [{"id": 1, "company": "Company Name", "amount": "$50 Mio.", "round": "Series B", "roundCategory": "Series B", "investors": ["Investor 1"], "valuation": "$500 Mio.", "content": "German description (2-3 sentences)", "author": {"name": "Source Name", "handle": "@source", "avatar": "XX", "verified": true}, "timestamp": "YYYY-MM-DD", "sourceUrl": "https://...", "metrics": {"comments": 0, "retweets": 0, "likes": 0, "views": "0"}}],
    "en": [{"id": 1, "company": "Company Name", "amount": "$50M", "round": "Series B", "roundCategory": "Series B", "investors": ["Investor 1"], "valuation": "$500M", "content": "English description (2-3 sentences)", "author": {"name": "Source Name", "handle": "@source", "avatar": "XX", "verified": true}, "timestamp": "YYYY-MM-DD", "sourceUrl": "https://...", "metrics": {"comments": 0, "retweets": 0, "likes": 0, "views": "0"}}]
  },
  "secondaryMarket": {
    "de": [{"id": 1, "ticker": "NVDA", "price": "$850", "change": "+5.2%%", "direction": "up", "marketCap": "$2,1 Bio.", "content": "German description", "author": {"name": "Source Name", "handle": "@source", "avatar": "XX", "verified": true}, "timestamp": "YYYY-MM-DD", "sourceUrl": "https://...", "metrics": {"comments": 0, "retweets": 0, "likes": 0, "views": "0"}}],
    "en": [{"id": 1, "ticker": "NVDA", "price": "$850", "change": "+5.2%%", "direction": "up", "marketCap": "$2.1T", "content": "English description", "author": {"name": "Source Name", "handle": "@source", "avatar": "XX", "verified": true}, "timestamp": "YYYY-MM-DD", "sourceUrl": "https://...", "metrics": {"comments": 0, "retweets": 0, "likes": 0, "views": "0"}}]
  },
  "ma": {
    "de": [{"id": 1, "acquirer": "Acquiring Company", "target": "Target Company", "dealValue": "$1,5 Mrd.", "dealType": "Akquisition", "industry": "Enterprise", "content": "German description", "author": {"name": "Source Name", "handle": "@source", "avatar": "XX", "verified": true}, "timestamp": "YYYY-MM-DD", "sourceUrl": "https://...", "metrics": {"comments": 0, "retweets": 0, "likes": 0, "views": "0"}}],
    "en": [{"id": 1, "acquirer": "Acquiring Company", "target": "Target Company", "dealValue": "$1.5B", "dealType": "Acquisition", "industry": "Enterprise", "content": "English description", "author": {"name": "Source Name", "handle": "@source", "avatar": "XX", "verified": true}, "timestamp": "YYYY-MM-DD", "sourceUrl": "https://...", "metrics": {"comments": 0, "retweets": 0, "likes": 0, "views": "0"}}]
  }
}

Rules:
- Include up to %d items per category
- Use German number formatting for 'de' (e.g., $2,75 Mrd., $500 Mio.)
- Use English number formatting for 'en' (e.g., $2.75B, $500M)
- direction: "up" or "down" based on price change
- dealType German: "Akquisition", "Fusion", "Übernahme"
- dealType English: "Acquisition", "Merger", "Buyout"
- sourceUrl: copy the exact Link URL from the article
- roundCategory: one of "Early", "Series A", "Series B", "Series C+", "Late/PE", "Unknown"
- industry: one of "Healthcare", "FinTech", "Enterprise", "Consumer", "Other"
- IMPORTANT: Each category MUST have both "de" and "en" arrays, even if empty

Output ONLY valid JSON.`, articleBlock(articles, maxInvestmentInput), count)

	response, err := p.c.Complete(ctx, p.processorModel, prompt, 0.3)
	if err != nil {
		return result, err
	}
	Decode(response, &result)
	return result, nil
}

var tipsSanitizeRe = regexp.MustCompile(`[\x00-\x1f\x7f"\\]`)

// sanitizeTipLine strips characters that tend to break the compact
// single-line JSON the tips prompt requests.
func sanitizeTipLine(text string) string {
	text = tipsSanitizeRe.ReplaceAllString(text, " ")
	return truncate(strings.Join(strings.Fields(text), " "), 200)
}

// ProcessTipsArticles extracts actionable tips, then fills defaults
// for the optional fields the compact prompt omits.
func (p *Processor) ProcessTipsArticles(ctx context.Context, articles []model.RawArticle, count int) (model.Bilingual[model.TipItem], error) {
	result := model.Bilingual[model.TipItem]{DE: []model.TipItem{}, EN: []model.TipItem{}}
	if len(articles) == 0 {
		return result, nil
	}

	var lines []string
	for i, a := range articles {
		if i >= maxTipsInput {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. [%s] %s - %s",
			i+1, a.Source, sanitizeTipLine(a.Title), sanitizeTipLine(truncate(a.Summary, 100))))
	}

	prompt := fmt.Sprintf(`Extract %d AI tips from these articles. Output JSON only.

ARTICLES:
%s

Output format:
{"de":[{"id":1,"content":"German tip description","tip":"The tip in German","category":"Produktivität","platform":"Reddit","sourceUrl":"url"}],"en":[{"id":1,"content":"English tip description","tip":"The tip in English","category":"Productivity","platform":"Reddit","sourceUrl":"url"}]}

Rules:
- %d items in both de and en arrays
- category: Produktivität/Productivity, Prompt-Tipps/Prompt Tips, Kreativität/Creativity
- platform: Reddit, Blog, or X
- Keep tips short and actionable
- No special characters in strings

JSON:`, count, strings.Join(lines, "\n"), count)

	response, err := p.c.Complete(ctx, p.processorModel, prompt, 0.2)
	if err != nil {
		return result, err
	}
	Decode(response, &result)

	fillTipDefaults(result.DE, "Mittel")
	fillTipDefaults(result.EN, "Intermediate")
	return result, nil
}

func fillTipDefaults(tips []model.TipItem, difficulty string) {
	for i := range tips {
		if tips[i].ID == 0 {
			tips[i].ID = i + 1
		}
		if tips[i].Author.Name == "" {
			tips[i].Author = model.Author{Name: "AI Tips", Handle: "@tips", Avatar: "TI", Verified: true}
		}
		if tips[i].Difficulty == "" {
			tips[i].Difficulty = difficulty
		}
		if tips[i].Metrics.Views == "" {
			tips[i].Metrics.Views = "0"
		}
	}
}

// GenerateTrends derives trending topics from the enriched tech and
// investment output. Empty input short-circuits without a model call.
func (p *Processor) GenerateTrends(ctx context.Context, tech model.Bilingual[model.TechItem], investment model.InvestmentResult) (model.TrendsResult, error) {
	result := model.TrendsResult{Trends: model.Bilingual[model.TrendTopic]{DE: []model.TrendTopic{}, EN: []model.TrendTopic{}}}

	var content []string
	for _, post := range tech.EN {
		if post.Content != "" {
			content = append(content, post.Content)
		}
	}
	for _, post := range investment.PrimaryMarket.EN {
		if post.Content != "" {
			content = append(content, post.Content)
		}
	}
	for _, post := range investment.SecondaryMarket.EN {
		if post.Content != "" {
			content = append(content, post.Content)
		}
	}
	for _, post := range investment.MA.EN {
		if post.Content != "" {
			content = append(content, post.Content)
		}
	}

	if len(content) == 0 {
		return result, nil
	}
	if len(content) > maxTrendContext {
		content = content[:maxTrendContext]
	}

	prompt := fmt.Sprintf(`Based on this week's AI news, generate EXACTLY 10 trending topics.

CONTENT:
%s

Output JSON:
{
  "trends": {
    "de": [{"category": "KI · Trend", "title": "Topic Name"}],
    "en": [{"category": "AI · Trending", "title": "Topic Name"}]
  }
}

Categories: KI, Technologie, Finanzen, Wissenschaft, Startups (German)
           AI, Technology, Finance, Science, Startups (English)
Output ONLY valid JSON.`, strings.Join(content, "\n"))

	response, err := p.c.Complete(ctx, p.processorModel, prompt, 0.5)
	if err != nil {
		return result, err
	}
	Decode(response, &result)
	return result, nil
}

// articleBlock renders articles as prompt input, capped at limit.
func articleBlock(articles []model.RawArticle, limit int) string {
	var blocks []string
	for _, a := range articles {
		if len(blocks) >= limit {
			break
		}
		blocks = append(blocks, fmt.Sprintf("Source: %s\nTitle: %s\nLink: %s\nSummary: %s\nDate: %s",
			a.Source, a.Title, a.Link, truncate(a.Summary, 500), a.Published))
	}
	return strings.Join(blocks, "\n\n")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
