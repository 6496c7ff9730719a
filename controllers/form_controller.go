package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/utils"
)

// FormController handles contact form intake and the admin listing.
type FormController struct {
	db *gorm.DB
}

// NewFormController creates a new FormController instance.
func NewFormController(db *gorm.DB) *FormController {
	return &FormController{db: db}
}

type formSubmission struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// SubmitForm stores one contact form entry. All fields are required.
func (f *FormController) SubmitForm(ctx *gin.Context) {
	var req formSubmission
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, "All fields are required.")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Subject == "" || req.Description == "" {
		utils.BadRequest(ctx, "All fields are required.")
		return
	}

	entry := models.FormEntry{
		FullName:    req.FullName,
		Email:       req.Email,
		Subject:     req.Subject,
		Description: req.Description,
	}
	if err := f.db.Create(&entry).Error; err != nil {
		utils.Fail(ctx, "failed to store form submission", err)
		return
	}
	utils.Message(ctx, http.StatusCreated, "Form submitted successfully!")
}

// ListForms returns every stored submission, newest first.
func (f *FormController) ListForms(ctx *gin.Context) {
	var entries []models.FormEntry
	if err := f.db.Order("created_at DESC").Find(&entries).Error; err != nil {
		utils.Fail(ctx, "failed to list form submissions", err)
		return
	}
	ctx.JSON(http.StatusOK, entries)
}
