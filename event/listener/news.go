package listener

import (
	"context"
	"encoding/json"
	"log"

	"crm-service/database"
	"crm-service/event"
	"crm-service/news"
)

var (
	NewsChannel = make(chan event.EventChannelData)
)

// News consumes refresh jobs and pulls the configured feed.
func News() {
	for job := range NewsChannel {
		if !job.Out.Send || job.Action != event.ActionNewsRefresh {
			continue
		}

		payload := event.NewsRefreshPayload{}
		if err := json.Unmarshal(job.Data, &payload); err != nil {
			log.Printf("news: malformed refresh job: %v", err)
			continue
		}

		aggregator := news.NewAggregator(database.Postgres, payload.FeedURL)
		inserted, err := aggregator.Refresh(context.Background())
		if err != nil {
			log.Printf("news: refresh failed: %v", err)
			continue
		}
		log.Printf("news: refresh stored %d new articles", inserted)
	}
}
