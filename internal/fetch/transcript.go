package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const maxTranscriptChars = 10000

// transcriptLangs is the preference order for caption tracks.
var transcriptLangs = []string{"en", "de", "en-US", "en-GB", "de-DE"}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:embed/)([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video id out of a YouTube URL.
func ExtractVideoID(rawURL string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// TranscriptFetcher retrieves video captions from the timedtext
// endpoint, trying preferred languages in order.
type TranscriptFetcher struct {
	baseURL string
	client  *http.Client
}

func NewTranscriptFetcher(timeout time.Duration) *TranscriptFetcher {
	return &TranscriptFetcher{
		baseURL: "https://video.google.com/timedtext",
		client:  &http.Client{Timeout: timeout},
	}
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// Fetch returns the transcript text for videoID, capped in length. It
// errors when no caption track exists in any preferred language;
// callers treat that as skip, not failure.
func (t *TranscriptFetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	for _, lang := range transcriptLangs {
		text, err := t.fetchLang(ctx, videoID, lang)
		if err == nil && text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("no transcript available for %s", videoID)
}

func (t *TranscriptFetcher) fetchLang(ctx context.Context, videoID, lang string) (string, error) {
	u := fmt.Sprintf("%s?lang=%s&v=%s", t.baseURL, url.QueryEscape(lang), url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext status %d", resp.StatusCode)
	}

	var tt timedText
	if err := xml.NewDecoder(resp.Body).Decode(&tt); err != nil {
		return "", err
	}

	var parts []string
	for _, line := range tt.Lines {
		s := strings.TrimSpace(html.UnescapeString(line.Text))
		if s != "" {
			parts = append(parts, s)
		}
	}
	return truncate(strings.Join(parts, " "), maxTranscriptChars), nil
}
