// Package news pulls articles from an external feed into the local table.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crm-service/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const fetchTimeout = 15 * time.Second

type feedItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

type Aggregator struct {
	db      *gorm.DB
	feedURL string
	client  *http.Client
}

func NewAggregator(db *gorm.DB, feedURL string) *Aggregator {
	return &Aggregator{
		db:      db,
		feedURL: feedURL,
		client:  &http.Client{Timeout: fetchTimeout},
	}
}

// Refresh downloads the feed and inserts articles not seen before.
// Articles already present (matched by URL) stay untouched.
func (a *Aggregator) Refresh(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var items []feedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return 0, fmt.Errorf("decode feed: %w", err)
	}

	inserted := 0
	for _, item := range items {
		if item.URL == "" || item.Title == "" {
			continue
		}
		article := model.NewsArticle{
			Title:       item.Title,
			Summary:     item.Summary,
			URL:         item.URL,
			Source:      item.Source,
			PublishedAt: item.PublishedAt,
		}
		result := a.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&article)
		if result.Error != nil {
			return inserted, fmt.Errorf("store article: %w", result.Error)
		}
		inserted += int(result.RowsAffected)
	}
	return inserted, nil
}
