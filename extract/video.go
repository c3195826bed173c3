// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/boardvec/core"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var videoURLPattern = regexp.MustCompile(`(?i)(?:youtube\.com/(?:watch\?|shorts/)|youtu\.be/)`)

// IsVideoURL reports whether a link points at a recognized video host.
// The router uses this to reclassify link items as videos.
func IsVideoURL(rawURL string) bool {
	return videoURLPattern.MatchString(rawURL)
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)youtube\.com/watch\?(?:.*&)?v=([\w-]{6,})`),
	regexp.MustCompile(`(?i)youtube\.com/shorts/([\w-]{6,})`),
	regexp.MustCompile(`(?i)youtu\.be/([\w-]{6,})`),
}

// videoIDFromURL pulls the video identifier out of any supported URL
// form. Empty when the URL is not a recognized video link.
func videoIDFromURL(rawURL string) string {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// videoMetadata is what the official metadata endpoint returns.
type videoMetadata struct {
	Title   string `json:"title"`
	Channel string `json:"author_name"`
}

// VideoClient resolves video titles and transcripts. Endpoints are
// fields so tests can point them at local servers.
type VideoClient struct {
	OEmbedBase    string
	WatchBase     string
	TimedTextBase string
	http          *http.Client
}

// NewVideoClient creates a client against the public video host.
func NewVideoClient() *VideoClient {
	return &VideoClient{
		OEmbedBase:    "https://www.youtube.com/oembed",
		WatchBase:     "https://www.youtube.com/watch",
		TimedTextBase: "https://video.google.com/timedtext",
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchMetadata queries the official metadata endpoint by video URL.
func (v *VideoClient) FetchMetadata(ctx context.Context, videoURL string) (*videoMetadata, error) {
	endpoint := v.OEmbedBase + "?format=json&url=" + url.QueryEscape(videoURL)
	body, err := v.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var meta videoMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.Title == "" {
		return nil, fmt.Errorf("metadata response had no title")
	}
	return &meta, nil
}

// ScrapeTitle fetches the watch page unauthenticated and pulls the
// <title> element out of the DOM. Degraded fallback for when the
// metadata endpoint rejects the video.
func (v *VideoClient) ScrapeTitle(ctx context.Context, videoID string) (string, error) {
	body, err := v.get(ctx, v.WatchBase+"?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse watch page: %w", err)
	}

	title := findTitle(doc)
	title = strings.TrimSuffix(title, " - YouTube")
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("watch page had no title")
	}
	return title, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return n.FirstChild.Data
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// timedTextResponse is the caption track XML shape.
type timedTextResponse struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// FetchTranscript pulls the English caption track when one exists.
func (v *VideoClient) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	body, err := v.get(ctx, v.TimedTextBase+"?lang=en&v="+url.QueryEscape(videoID))
	if err != nil {
		return "", err
	}

	var track timedTextResponse
	if err := xml.Unmarshal(body, &track); err != nil {
		return "", fmt.Errorf("failed to parse caption track: %w", err)
	}
	if len(track.Texts) == 0 {
		return "", fmt.Errorf("no caption track available")
	}

	parts := make([]string, 0, len(track.Texts))
	for _, t := range track.Texts {
		line := strings.TrimSpace(t.Value)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " "), nil
}

func (v *VideoClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, endpoint)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// videoTitleChain orders the title sources: the official metadata
// endpoint, then the unauthenticated page scrape.
func (e *Extractor) videoTitleChain() []Strategy {
	return []Strategy{
		{
			Name: "video-metadata",
			Run: func(ctx context.Context, item *core.Item) Result {
				meta, err := e.video.FetchMetadata(ctx, item.SourceURL)
				if err != nil {
					return Fail(err)
				}
				if meta.Channel != "" {
					return Ok(meta.Title + "\nChannel: " + meta.Channel)
				}
				return Ok(meta.Title)
			},
		},
		{
			Name: "video-scrape",
			Run: func(ctx context.Context, item *core.Item) Result {
				id := videoIDFromURL(item.SourceURL)
				if id == "" {
					return Fail(ErrNoSourceURL)
				}
				title, err := e.video.ScrapeTitle(ctx, id)
				if err != nil {
					return Fail(err)
				}
				return Ok(title)
			},
		},
	}
}

// extractVideo assembles the best available combination of title and
// transcript. A video item always yields content; when everything
// fails the result degrades to the item's own title and description
// rather than dropping the item.
func (e *Extractor) extractVideo(ctx context.Context, item *core.Item) (string, error) {
	titleLine, err := runChain(ctx, item, e.logger, e.videoTitleChain())
	if err != nil {
		titleLine = item.Title
		if titleLine == "" {
			titleLine = "Video"
		}
	}

	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(titleLine)

	if item.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(item.Description)
	}

	if id := videoIDFromURL(item.SourceURL); id != "" {
		if transcript, terr := e.video.FetchTranscript(ctx, id); terr == nil {
			b.WriteString("\n\nTranscript:\n")
			b.WriteString(transcript)
		} else {
			e.logger.Debug("transcript unavailable", "block", item.ExternalID, "err", terr)
		}
	}

	return Clean(b.String()), nil
}
