package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"spotiscience/internal/models"
)

const (
	DefaultGeniusAPIURL = "https://api.genius.com"
	geniusPlatform      = "genius"
)

var (
	sectionHeaderPattern = regexp.MustCompile(`(\[.*?\])*`)
	doubleNewlinePattern = regexp.MustCompile(`\n{2}`)
)

// geniusService implements LyricsClient against the Genius API and song pages
type geniusService struct {
	client      *resty.Client
	accessToken string
	timeout     time.Duration
}

// GeniusOptions configures the Genius client
type GeniusOptions struct {
	AccessToken string
	APIURL      string
	Timeout     time.Duration
}

// NewGeniusService creates a new Genius lyrics client
func NewGeniusService(opts GeniusOptions) LyricsClient {
	if opts.APIURL == "" {
		opts.APIURL = DefaultGeniusAPIURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.APIURL).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "spotiscience/1.0")

	return &geniusService{
		client:      client,
		accessToken: opts.AccessToken,
		timeout:     opts.Timeout,
	}
}

type geniusSearchResponse struct {
	Response struct {
		Hits []geniusHit `json:"hits"`
	} `json:"response"`
}

type geniusHit struct {
	Type   string     `json:"type"`
	Result geniusSong `json:"result"`
}

type geniusSong struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	PrimaryArtist struct {
		Name string `json:"name"`
	} `json:"primary_artist"`
}

// SearchSong finds the song on Genius and returns its lyrics with section
// headers removed
func (g *geniusService) SearchSong(ctx context.Context, title, artist string) (string, error) {
	song, err := g.search(ctx, title, artist)
	if err != nil {
		return "", err
	}

	page, err := g.fetchPage(ctx, song.URL)
	if err != nil {
		return "", err
	}

	lyrics, err := ExtractLyrics(page)
	if err != nil {
		return "", &PlatformError{
			Platform:  geniusPlatform,
			Operation: "parse_lyrics",
			Message:   "could not read lyrics page",
			URL:       song.URL,
			Err:       err,
		}
	}
	return CleanLyrics(lyrics), nil
}

func (g *geniusService) search(ctx context.Context, title, artist string) (*geniusSong, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var result geniusSearchResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.accessToken).
		SetQueryParam("q", strings.TrimSpace(title+" "+artist)).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, &PlatformError{
			Platform:  geniusPlatform,
			Operation: "search",
			Message:   "request failed",
			Err:       err,
		}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &PlatformError{
			Platform:   geniusPlatform,
			Operation:  "search",
			Message:    fmt.Sprintf("API returned status %d", resp.StatusCode()),
			StatusCode: resp.StatusCode(),
		}
	}

	song := pickHit(result.Response.Hits, artist)
	if song == nil {
		return nil, &PlatformError{
			Platform:   geniusPlatform,
			Operation:  "search",
			Message:    fmt.Sprintf("no song found for %q by %q", title, artist),
			StatusCode: http.StatusNotFound,
			Err:        models.ErrNotFound,
		}
	}
	return song, nil
}

// pickHit prefers the first song whose primary artist matches, else the first song
func pickHit(hits []geniusHit, artist string) *geniusSong {
	var first *geniusSong
	for i := range hits {
		if hits[i].Type != "song" || hits[i].Result.URL == "" {
			continue
		}
		if first == nil {
			first = &hits[i].Result
		}
		if artist != "" && strings.EqualFold(hits[i].Result.PrimaryArtist.Name, artist) {
			return &hits[i].Result
		}
	}
	return first
}

func (g *geniusService) fetchPage(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return "", &PlatformError{
			Platform:  geniusPlatform,
			Operation: "fetch_page",
			Message:   "request failed",
			URL:       pageURL,
			Err:       err,
		}
	}
	if resp.StatusCode() != http.StatusOK {
		pe := &PlatformError{
			Platform:   geniusPlatform,
			Operation:  "fetch_page",
			Message:    fmt.Sprintf("page returned status %d", resp.StatusCode()),
			URL:        pageURL,
			StatusCode: resp.StatusCode(),
		}
		if resp.StatusCode() == http.StatusNotFound {
			pe.Err = models.ErrNotFound
		}
		return "", pe
	}
	return resp.String(), nil
}

// ExtractLyrics renders the lyric containers of a Genius song page to plain
// text, treating <br> as a line break
func ExtractLyrics(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	var containers []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && attr(n, "data-lyrics-container") == "true" {
			var b strings.Builder
			renderText(&b, n)
			containers = append(containers, b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(containers) == 0 {
		return "", fmt.Errorf("no lyrics containers on page: %w", models.ErrNotFound)
	}
	return strings.Join(containers, "\n"), nil
}

func renderText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// CleanLyrics drops section headers such as [Chorus] and collapses the
// blank lines they leave behind
func CleanLyrics(lyrics string) string {
	lyrics = sectionHeaderPattern.ReplaceAllString(lyrics, "")
	lyrics = doubleNewlinePattern.ReplaceAllString(lyrics, "\n")
	return strings.TrimSpace(lyrics)
}
