package controller

import (
	"time"

	"crm-service/database"
	"crm-service/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ContentInput struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Status string `json:"status"`
}

func ContentList(c *fiber.Ctx) error {
	var items []model.ContentItem
	query := database.Postgres.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&items).Error; err != nil {
		return internalError(c)
	}
	return success(c, items)
}

func ContentCreate(c *fiber.Ctx) error {
	input := new(ContentInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Title == "" {
		return badRequest(c, "Title is required")
	}
	if input.Status == "" {
		input.Status = "draft"
	}

	item := model.ContentItem{
		AuthorID: callerID(c),
		Title:    input.Title,
		Body:     input.Body,
		Status:   input.Status,
	}
	if item.Status == "published" {
		now := time.Now()
		item.Published = &now
	}
	if err := database.Postgres.Create(&item).Error; err != nil {
		return internalError(c)
	}
	return success(c, item)
}

func ContentUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed content id")
	}

	input := new(ContentInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}

	var item model.ContentItem
	if err := database.Postgres.First(&item, "id = ?", id).Error; err != nil {
		return badRequest(c, "Unknown content item")
	}

	item.Title = input.Title
	item.Body = input.Body
	if input.Status != "" && input.Status != item.Status {
		item.Status = input.Status
		if input.Status == "published" && item.Published == nil {
			now := time.Now()
			item.Published = &now
		}
	}
	if err := database.Postgres.Save(&item).Error; err != nil {
		return internalError(c)
	}
	return success(c, item)
}

func ContentDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed content id")
	}

	result := database.Postgres.Where("id = ?", id).Delete(&model.ContentItem{})
	if result.Error != nil {
		return internalError(c)
	}
	if result.RowsAffected == 0 {
		return badRequest(c, "Unknown content item")
	}
	return success(c, nil)
}

type SettingInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func SettingsList(c *fiber.Ctx) error {
	var settings []model.Setting
	if err := database.Postgres.Order("key asc").Find(&settings).Error; err != nil {
		return internalError(c)
	}
	return success(c, settings)
}

func SettingsUpsert(c *fiber.Ctx) error {
	input := new(SettingInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Key == "" {
		return badRequest(c, "Key is required")
	}

	var setting model.Setting
	err := database.Postgres.Where("key = ?", input.Key).First(&setting).Error
	if err != nil {
		setting = model.Setting{Key: input.Key, Value: input.Value}
		if err := database.Postgres.Create(&setting).Error; err != nil {
			return internalError(c)
		}
	} else {
		setting.Value = input.Value
		if err := database.Postgres.Save(&setting).Error; err != nil {
			return internalError(c)
		}
	}
	return success(c, setting)
}
