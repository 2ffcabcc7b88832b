package extract

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoTranscript means the video exists but has no fetchable transcript,
// typically because subtitles are disabled for it.
var ErrNoTranscript = errors.New("no transcript available for this video")

const defaultTimedTextBaseURL = "https://video.google.com/timedtext"

// TranscriptClient fetches YouTube timed-text transcripts.
type TranscriptClient struct {
	baseURL    string
	lang       string
	httpClient *http.Client
}

func NewTranscriptClient(baseURL, lang string) *TranscriptClient {
	if baseURL == "" {
		baseURL = defaultTimedTextBaseURL
	}
	if lang == "" {
		lang = "en"
	}
	return &TranscriptClient{
		baseURL:    baseURL,
		lang:       lang,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedSegment `xml:"text"`
}

type timedSegment struct {
	Start string `xml:"start,attr"`
	Body  string `xml:",chardata"`
}

// Fetch returns the full transcript text of the video, segments concatenated
// in temporal order and separated by single spaces.
func (c *TranscriptClient) Fetch(ctx context.Context, videoURL string) (string, error) {
	videoID, err := parseVideoID(videoURL)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s?lang=%s&v=%s", strings.TrimRight(c.baseURL, "/"), url.QueryEscape(c.lang), url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoTranscript
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcript response status %d: %s", resp.StatusCode, string(raw))
	}
	// An empty body is how the endpoint signals disabled subtitles.
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "", ErrNoTranscript
	}

	var parsed timedText
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse transcript xml failed: %w", err)
	}
	if len(parsed.Texts) == 0 {
		return "", ErrNoTranscript
	}

	segments := make([]timedSegment, len(parsed.Texts))
	copy(segments, parsed.Texts)
	sort.SliceStable(segments, func(i, j int) bool {
		return segmentStart(segments[i]) < segmentStart(segments[j])
	})

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if body := strings.TrimSpace(html.UnescapeString(seg.Body)); body != "" {
			parts = append(parts, body)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoTranscript
	}
	return strings.Join(parts, " "), nil
}

func segmentStart(seg timedSegment) float64 {
	start, err := strconv.ParseFloat(seg.Start, 64)
	if err != nil {
		return 0
	}
	return start
}

// parseVideoID accepts watch URLs, youtu.be short links and bare video ids.
func parseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty video url")
	}
	if !strings.Contains(raw, "/") && !strings.Contains(raw, "?") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid video url %q: %w", raw, err)
	}
	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	if strings.Contains(u.Host, "youtu.be") {
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	}
	if strings.Contains(u.Path, "/embed/") || strings.Contains(u.Path, "/shorts/") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && parts[1] != "" {
			return parts[1], nil
		}
	}
	return "", fmt.Errorf("could not find a video id in %q", raw)
}
