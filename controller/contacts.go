package controller

import (
	"crm-service/database"
	"crm-service/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ContactInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Notes     string `json:"notes"`
}

func ContactsList(c *fiber.Ctx) error {
	var contacts []model.Contact
	err := database.Postgres.
		Where("owner_id = ?", callerID(c)).
		Order("created_at desc").
		Find(&contacts).Error
	if err != nil {
		return internalError(c)
	}
	return success(c, contacts)
}

func ContactsCreate(c *fiber.Ctx) error {
	input := new(ContactInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.FirstName == "" {
		return badRequest(c, "First name is required")
	}

	contact := model.Contact{
		OwnerID:   callerID(c),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Company:   input.Company,
		Notes:     input.Notes,
	}
	if err := database.Postgres.Create(&contact).Error; err != nil {
		return internalError(c)
	}
	return success(c, contact)
}

func ContactsUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed contact id")
	}

	input := new(ContactInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}

	var contact model.Contact
	err := database.Postgres.
		Where("id = ? AND owner_id = ?", id, callerID(c)).
		First(&contact).Error
	if err != nil {
		return badRequest(c, "Unknown contact")
	}

	contact.FirstName = input.FirstName
	contact.LastName = input.LastName
	contact.Email = input.Email
	contact.Phone = input.Phone
	contact.Company = input.Company
	contact.Notes = input.Notes
	if err := database.Postgres.Save(&contact).Error; err != nil {
		return internalError(c)
	}
	return success(c, contact)
}

func ContactsDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed contact id")
	}

	result := database.Postgres.
		Where("id = ? AND owner_id = ?", id, callerID(c)).
		Delete(&model.Contact{})
	if result.Error != nil {
		return internalError(c)
	}
	if result.RowsAffected == 0 {
		return badRequest(c, "Unknown contact")
	}
	return success(c, nil)
}
