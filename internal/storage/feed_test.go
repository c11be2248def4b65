package storage

import (
	"fmt"
	"testing"

	"github.com/datacube/aihub/internal/model"
)

func makePosts(prefix string, n int) []model.TechPost {
	posts := make([]model.TechPost, n)
	for i := range posts {
		posts[i] = model.TechPost{ContentEN: fmt.Sprintf("%s%d", prefix, i), IsVideo: prefix == "v"}
	}
	return posts
}

func TestIntersperseVideos(t *testing.T) {
	merged := IntersperseVideos(makePosts("p", 12), makePosts("v", 3))

	want := []string{"p0", "p1", "v0", "p2", "p3", "p4", "p5", "v1", "p6", "p7", "p8", "p9", "v2", "p10", "p11"}
	if len(merged) != len(want) {
		t.Fatalf("got %d posts, want %d", len(merged), len(want))
	}
	for i, w := range want {
		if merged[i].ContentEN != w {
			t.Errorf("slot %d: got %s, want %s", i, merged[i].ContentEN, w)
		}
		if merged[i].DisplayOrder != i {
			t.Errorf("slot %d: display order %d", i, merged[i].DisplayOrder)
		}
	}
}

func TestIntersperseVideosExcessVideos(t *testing.T) {
	// With posts exhausted, remaining videos append at the tail.
	merged := IntersperseVideos(makePosts("p", 2), makePosts("v", 4))
	want := []string{"p0", "p1", "v0", "v1", "v2", "v3"}
	for i, w := range want {
		if merged[i].ContentEN != w {
			t.Errorf("slot %d: got %s, want %s", i, merged[i].ContentEN, w)
		}
	}
}

func TestIntersperseVideosNoVideos(t *testing.T) {
	merged := IntersperseVideos(makePosts("p", 5), nil)
	for i := range merged {
		if merged[i].ContentEN != fmt.Sprintf("p%d", i) {
			t.Errorf("slot %d: got %s", i, merged[i].ContentEN)
		}
	}
}

func TestIntersperseVideosEmpty(t *testing.T) {
	if got := IntersperseVideos(nil, nil); len(got) != 0 {
		t.Errorf("got %d posts from empty input", len(got))
	}
}

func TestBuildVideoPost(t *testing.T) {
	de := model.VideoItem{VideoID: "abc123", Title: "Titel", Summary: "Zusammenfassung", Category: "Bildung"}
	en := model.VideoItem{VideoID: "abc123", Title: "Title", Summary: "Summary", Category: "Education"}
	meta := model.RawVideo{
		VideoID:            "abc123",
		ChannelName:        "Two Minute Papers",
		PublishedAt:        "2026-02-10T14:00:00Z",
		DurationFormatted:  "12:34",
		ViewCountFormatted: "1.2M",
		LikeCount:          4200,
		ThumbnailURL:       "https://i.ytimg.com/vi/abc123/hqdefault.jpg",
	}

	post := buildVideoPost("2026-kw07", de, en, meta)
	if !post.IsVideo || post.VideoID != "abc123" {
		t.Fatalf("video flags wrong: %+v", post)
	}
	if post.SourceURL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("source url %q", post.SourceURL)
	}
	if post.Timestamp != "2026-02-10" {
		t.Errorf("timestamp %q", post.Timestamp)
	}
	if post.Author.Name != "Two Minute Papers" || post.Author.Avatar != "YT" {
		t.Errorf("author %+v", post.Author)
	}
	if post.Metrics.Views != "1.2M" || post.Metrics.Likes != 4200 {
		t.Errorf("metrics %+v", post.Metrics)
	}
	if post.IconType != "Zap" || post.Impact != "medium" {
		t.Errorf("classification %q/%q", post.IconType, post.Impact)
	}
}

func TestBuildTechPostDefaults(t *testing.T) {
	post := buildTechPost("2026-kw07", model.TechItem{Content: "de"}, model.TechItem{Content: "en"})
	if post.Author.Name != "Unknown" {
		t.Errorf("author default %+v", post.Author)
	}
	if post.IconType != "Brain" || post.Impact != "medium" {
		t.Errorf("defaults %q/%q", post.IconType, post.Impact)
	}
}

func TestComposeVideoRows(t *testing.T) {
	videos := model.Bilingual[model.VideoItem]{
		DE: []model.VideoItem{
			{VideoID: "fresh000001", Title: "Neu", Category: "KI"},
			{VideoID: "taken000001", Title: "Alt"},
			{Title: "Ohne ID"},
			{Title: "Aus EN"},
		},
		EN: []model.VideoItem{
			{VideoID: "fresh000001", Title: "New"},
			{VideoID: "taken000001", Title: "Old"},
			{Title: "No ID"},
			{VideoID: "fromen00001", Title: "From EN", Category: "AI"},
		},
	}
	lookup := map[string]model.RawVideo{
		"fresh000001": {VideoID: "fresh000001", ChannelName: "Two Minute Papers"},
	}

	var checked []string
	rows, skipped, err := composeVideoRows(videos, lookup, func(vid string) (bool, error) {
		checked = append(checked, vid)
		return vid == "taken000001", nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].VideoID != "fresh000001" || rows[0].Meta.ChannelName != "Two Minute Papers" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[0].Category != "KI" {
		t.Errorf("category = %q, want DE side to win", rows[0].Category)
	}
	// The id-less pair never reaches the ownership check; the pair
	// with only an English id is adopted on both sides.
	if len(checked) != 3 {
		t.Errorf("ownership checked for %v", checked)
	}
	if rows[1].VideoID != "fromen00001" || rows[1].DE.VideoID != "fromen00001" {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[1].Category != "AI" {
		t.Errorf("category = %q, want EN fallback", rows[1].Category)
	}
}

func TestComposeVideoRowsOwnershipError(t *testing.T) {
	videos := model.Bilingual[model.VideoItem]{
		DE: []model.VideoItem{{VideoID: "fresh000001"}},
		EN: []model.VideoItem{{VideoID: "fresh000001"}},
	}
	_, _, err := composeVideoRows(videos, nil, func(string) (bool, error) {
		return false, fmt.Errorf("connection reset")
	})
	if err == nil {
		t.Fatal("expected ownership check error to propagate")
	}
}
