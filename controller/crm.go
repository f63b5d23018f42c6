package controller

import (
	"time"

	"crm-service/database"
	"crm-service/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type LeadInput struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Company string  `json:"company"`
	Stage   string  `json:"stage"`
	Value   float64 `json:"value"`
	Source  string  `json:"source"`
	Notes   string  `json:"notes"`
}

type DealInput struct {
	LeadID *string `json:"lead_id"`
	Title  string  `json:"title"`
	Stage  string  `json:"stage"`
	Amount float64 `json:"amount"`
}

func leadStageValid(stage string) bool {
	switch stage {
	case model.LeadStageNew, model.LeadStageContacted, model.LeadStageQualified, model.LeadStageLost:
		return true
	}
	return false
}

func LeadsList(c *fiber.Ctx) error {
	query := database.Postgres.Where("owner_id = ?", callerID(c))
	if stage := c.Query("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}

	var leads []model.Lead
	if err := query.Order("created_at desc").Find(&leads).Error; err != nil {
		return internalError(c)
	}
	return success(c, leads)
}

func LeadsCreate(c *fiber.Ctx) error {
	input := new(LeadInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Name == "" {
		return badRequest(c, "Lead name is required")
	}
	if input.Stage == "" {
		input.Stage = model.LeadStageNew
	}
	if !leadStageValid(input.Stage) {
		return badRequest(c, "Unknown lead stage")
	}

	lead := model.Lead{
		OwnerID: callerID(c),
		Name:    input.Name,
		Email:   input.Email,
		Company: input.Company,
		Stage:   input.Stage,
		Value:   input.Value,
		Source:  input.Source,
		Notes:   input.Notes,
	}
	if err := database.Postgres.Create(&lead).Error; err != nil {
		return internalError(c)
	}
	return success(c, lead)
}

func LeadsUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed lead id")
	}

	input := new(LeadInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Stage != "" && !leadStageValid(input.Stage) {
		return badRequest(c, "Unknown lead stage")
	}

	var lead model.Lead
	err := database.Postgres.
		Where("id = ? AND owner_id = ?", id, callerID(c)).
		First(&lead).Error
	if err != nil {
		return badRequest(c, "Unknown lead")
	}

	lead.Name = input.Name
	lead.Email = input.Email
	lead.Company = input.Company
	if input.Stage != "" {
		lead.Stage = input.Stage
	}
	lead.Value = input.Value
	lead.Source = input.Source
	lead.Notes = input.Notes
	if err := database.Postgres.Save(&lead).Error; err != nil {
		return internalError(c)
	}
	return success(c, lead)
}

func DealsList(c *fiber.Ctx) error {
	var deals []model.Deal
	err := database.Postgres.
		Where("owner_id = ?", callerID(c)).
		Order("created_at desc").
		Find(&deals).Error
	if err != nil {
		return internalError(c)
	}
	return success(c, deals)
}

func DealsCreate(c *fiber.Ctx) error {
	input := new(DealInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Title == "" {
		return badRequest(c, "Deal title is required")
	}
	if input.Stage == "" {
		input.Stage = model.DealStageOpen
	}

	deal := model.Deal{
		OwnerID: callerID(c),
		LeadID:  input.LeadID,
		Title:   input.Title,
		Stage:   input.Stage,
		Amount:  input.Amount,
	}
	if err := database.Postgres.Create(&deal).Error; err != nil {
		return internalError(c)
	}
	return success(c, deal)
}

func DealsUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed deal id")
	}

	input := new(DealInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}

	var deal model.Deal
	err := database.Postgres.
		Where("id = ? AND owner_id = ?", id, callerID(c)).
		First(&deal).Error
	if err != nil {
		return badRequest(c, "Unknown deal")
	}

	deal.Title = input.Title
	deal.Amount = input.Amount
	if input.Stage != "" && input.Stage != deal.Stage {
		deal.Stage = input.Stage
		if input.Stage == model.DealStageWon || input.Stage == model.DealStageLost {
			now := time.Now()
			deal.ClosedAt = &now
		}
	}
	if err := database.Postgres.Save(&deal).Error; err != nil {
		return internalError(c)
	}
	return success(c, deal)
}
