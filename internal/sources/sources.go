// Package sources loads the RSS source catalog from YAML, keyed by
// feed section. When no file is present a built-in default catalog is
// used so the pipeline works out of the box.
package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one configured RSS feed.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Lang     string `yaml:"lang,omitempty"`
	Enhanced bool   `yaml:"enhanced,omitempty"` // served by the search fetcher instead
}

// Catalog maps a section hint ("tech", "investment", "ma", "tips") to
// its feeds.
type Catalog map[string][]Source

// Load reads the catalog from path. A missing file returns the default
// catalog; a malformed file is an error.
func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("open sources config: %w", err)
	}
	defer f.Close()

	var catalog Catalog
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode sources config: %w", err)
	}
	return catalog, nil
}

// Defaults returns the built-in source catalog.
func Defaults() Catalog {
	return Catalog{
		"tech": {
			{Name: "Hacker News", URL: "https://hnrss.org/newest?q=AI&points=50", Enhanced: true},
			{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml"},
			{Name: "MIT Technology Review", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed"},
			{Name: "The Decoder", URL: "https://the-decoder.com/feed/"},
		},
		"investment": {
			{Name: "TechCrunch Funding", URL: "https://techcrunch.com/tag/funding/feed/"},
			{Name: "Crunchbase News", URL: "https://news.crunchbase.com/feed/"},
			{Name: "Techmeme", URL: "https://www.techmeme.com/feed.xml"},
			{Name: "Sifted", URL: "https://sifted.eu/feed"},
			{Name: "VentureBeat", URL: "https://venturebeat.com/feed/"},
			{Name: "36Kr", URL: "https://36kr.com/feed", Lang: "zh"},
			{Name: "Tech.eu", URL: "https://tech.eu/feed"},
			{Name: "TechNode", URL: "https://technode.com/feed/"},
		},
		"ma": {
			{Name: "Reuters Deals", URL: "https://www.reuters.com/markets/deals/rss"},
			{Name: "TechCrunch M&A", URL: "https://techcrunch.com/tag/mergers-and-acquisitions/feed/"},
		},
		"tips": {
			{Name: "Simon Willison", URL: "https://simonwillison.net/atom/everything/"},
			{Name: "One Useful Thing", URL: "https://www.oneusefulthing.org/feed"},
			{Name: "Reddit r/ChatGPT", URL: "https://www.reddit.com/r/ChatGPT/top/.rss?t=week"},
			{Name: "Reddit r/ClaudeAI", URL: "https://www.reddit.com/r/ClaudeAI/top/.rss?t=week"},
			{Name: "Reddit r/OpenAI", URL: "https://www.reddit.com/r/OpenAI/top/.rss?t=week"},
			{Name: "Reddit r/PromptEngineering", URL: "https://www.reddit.com/r/PromptEngineering/top/.rss?t=week"},
			{Name: "Reddit r/artificial", URL: "https://www.reddit.com/r/artificial/top/.rss?t=week"},
			{Name: "Reddit r/singularity", URL: "https://www.reddit.com/r/singularity/top/.rss?t=week"},
		},
	}
}
