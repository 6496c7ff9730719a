package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/utils"
)

// CategoryController manages the category table. Renames and deletes do
// not cascade to articles: Article.Category/CategoryURL keep whatever was
// current at their last write.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

type createCategoriesRequest struct {
	Names []string `json:"names"`
}

// CreateCategories inserts several categories at once, skipping names
// whose slug already exists.
func (c *CategoryController) CreateCategories(ctx *gin.Context) {
	var req createCategoriesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || len(req.Names) == 0 {
		utils.BadRequest(ctx, "Provide an array of category names.")
		return
	}

	var toInsert []models.Category
	seen := map[string]struct{}{}
	for _, name := range req.Names {
		url := utils.Slugify(name)
		if url == "" {
			continue
		}
		// Two request names can collapse to one slug; only the first wins.
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		var count int64
		if err := c.db.Model(&models.Category{}).Where("url = ?", url).Count(&count).Error; err != nil {
			utils.Fail(ctx, "failed to check existing categories", err)
			return
		}
		if count == 0 {
			toInsert = append(toInsert, models.Category{Name: name, URL: url})
		}
	}

	if len(toInsert) == 0 {
		utils.BadRequest(ctx, "No new categories to add.")
		return
	}

	if err := c.db.Create(&toInsert).Error; err != nil {
		utils.Fail(ctx, "failed to create categories", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Categories added successfully", "categories": toInsert})
}

// UpdateCategory renames a category and recomputes its slug. Existing
// articles are left untouched.
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Name == "" {
		utils.BadRequest(ctx, "Category name is required")
		return
	}

	var category models.Category
	if err := c.db.First(&category, "id = ?", ctx.Param("categoryId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Category not found")
			return
		}
		utils.Fail(ctx, "failed to load category", err)
		return
	}

	category.Name = req.Name
	category.URL = utils.Slugify(req.Name)
	if err := c.db.Save(&category).Error; err != nil {
		utils.Fail(ctx, "failed to update category", err)
		return
	}

	ctx.JSON(http.StatusOK, category)
}

// GetCategories lists all categories sorted by name.
func (c *CategoryController) GetCategories(ctx *gin.Context) {
	var categories []models.Category
	if err := c.db.Order("name ASC").Find(&categories).Error; err != nil {
		utils.Fail(ctx, "failed to list categories", err)
		return
	}
	ctx.JSON(http.StatusOK, categories)
}

// DeleteCategory removes a category row. Articles in the category keep
// their denormalized name and slug.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	res := c.db.Delete(&models.Category{}, "id = ?", ctx.Param("categoryId"))
	if res.Error != nil {
		utils.Fail(ctx, "failed to delete category", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.NotFound(ctx, "Category not found")
		return
	}
	utils.Message(ctx, http.StatusOK, "Category deleted successfully")
}
