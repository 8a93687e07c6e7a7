package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const fetchTimeout = 5 * time.Second

// Info is what a moderator sees about a preview link before deciding on a
// flagged listing.
type Info struct {
	URL         string `json:"url"`
	FinalURL    string `json:"final_url"`
	StatusCode  int    `json:"status_code"`
	Title       string `json:"title"`
	SiteName    string `json:"site_name"`
	Description string `json:"description"`
}

// Inspect fetches the preview page and extracts its title and Open Graph
// metadata. It is review tooling, called on demand; nothing in the submission
// path depends on it.
func Inspect(ctx context.Context, rawURL string) (*Info, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
	}

	client := &http.Client{Timeout: fetchTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	info := &Info{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return info, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	info.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if ogTitle := metaContent(doc, "og:title"); ogTitle != "" {
		info.Title = ogTitle
	}
	info.SiteName = metaContent(doc, "og:site_name")
	info.Description = metaContent(doc, "og:description")
	if info.Description == "" {
		info.Description, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
		info.Description = strings.TrimSpace(info.Description)
	}

	return info, nil
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
	return strings.TrimSpace(content)
}
