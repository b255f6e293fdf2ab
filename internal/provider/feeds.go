package provider

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedSource is one RSS or Atom endpoint.
type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// IsGoogleNews reports whether titles from this source carry a trailing
// " - Publisher" suffix.
func (f FeedSource) IsGoogleNews() bool {
	return strings.Contains(f.URL, "news.google.com")
}

var DefaultFeeds = []FeedSource{
	{Name: "Google News (Reuters Site)", URL: "https://news.google.com/rss/search?q=site%3Areuters.com+when%3A1d&hl=en-US&gl=US&ceid=US%3Aen"},
	{Name: "Yahoo Finance Market News", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "Investing.com News", URL: "https://www.investing.com/rss/news.rss"},
	{Name: "MarketWatch Top Stories", URL: "https://feeds.marketwatch.com/marketwatch/topstories/"},
	{Name: "CNBC Top News", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Name: "Seeking Alpha Market Currents", URL: "https://seekingalpha.com/market_currents.xml"},
}

type feedCatalog struct {
	Feeds []FeedSource `yaml:"feeds"`
}

// LoadFeedCatalog reads a YAML catalog of the form
//
//	feeds:
//	  - name: CNBC Top News
//	    url: https://www.cnbc.com/id/100003114/device/rss/rss.html
//
// An empty path returns DefaultFeeds.
func LoadFeedCatalog(path string) ([]FeedSource, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultFeeds, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed catalog: %w", err)
	}
	return parseFeedCatalog(data)
}

func parseFeedCatalog(data []byte) ([]FeedSource, error) {
	var catalog feedCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode feed catalog: %w", err)
	}

	feeds := make([]FeedSource, 0, len(catalog.Feeds))
	for i, f := range catalog.Feeds {
		f.Name = strings.TrimSpace(f.Name)
		f.URL = strings.TrimSpace(f.URL)
		if f.URL == "" {
			return nil, fmt.Errorf("feed %d has no url", i)
		}
		if f.Name == "" {
			f.Name = f.URL
		}
		feeds = append(feeds, f)
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("feed catalog is empty")
	}
	return feeds, nil
}
