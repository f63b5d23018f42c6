package controller

import (
	"strconv"

	"crm-service/config"
	"crm-service/database"
	"crm-service/model"

	"github.com/gofiber/fiber/v2"
)

const newsPageSize = 50

func NewsList(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	var articles []model.NewsArticle
	err := database.Postgres.
		Order("published_at desc").
		Limit(newsPageSize).
		Offset((page - 1) * newsPageSize).
		Find(&articles).Error
	if err != nil {
		return internalError(c)
	}
	return success(c, articles)
}

// NewsRefresh queues a feed pull; the news listener does the download.
func NewsRefresh(c *fiber.Ctx) error {
	feedURL := config.Config("NEWS_FEED_URL")
	if feedURL == "" {
		return badRequest(c, "No news feed configured")
	}
	QueueNewsRefresh(feedURL)
	return success(c, nil)
}
