package controllers

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixpointrepo/marcom-backend/config"
	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/utils"
)

// ArticleController manages the article catalog: upload with thumbnail,
// listing with filters, partial updates and deletion.
type ArticleController struct {
	db *gorm.DB
}

// NewArticleController creates a new ArticleController instance.
func NewArticleController(db *gorm.DB) *ArticleController {
	return &ArticleController{db: db}
}

const articleDateLayout = "2006-01-02"

// UploadArticle creates an article from a multipart form. The thumbnail
// image is mandatory on create; the article URL is derived from the title
// plus the row id once the id is known.
func (a *ArticleController) UploadArticle(ctx *gin.Context) {
	file, err := ctx.FormFile("thumbnail")
	if err != nil {
		utils.BadRequest(ctx, "Image file is required")
		return
	}

	title := ctx.PostForm("title")
	summary := ctx.PostForm("summary")
	description := ctx.PostForm("description")
	author := ctx.PostForm("author")
	category := ctx.PostForm("category")
	if title == "" || summary == "" || description == "" || author == "" || category == "" {
		utils.BadRequest(ctx, "title, summary, description, author and category are required")
		return
	}

	date, err := time.ParseInLocation(articleDateLayout, ctx.PostForm("date"), time.UTC)
	if err != nil {
		utils.BadRequest(ctx, "date must be YYYY-MM-DD")
		return
	}

	thumbnail, err := a.saveThumbnail(ctx, file)
	if err != nil {
		utils.Fail(ctx, "failed to store thumbnail", err)
		return
	}

	article := models.Article{
		Title:          title,
		Summary:        summary,
		Description:    utils.Sanitize(description),
		Date:           date,
		ReadTime:       ctx.PostForm("readTime"),
		Author:         author,
		Thumbnail:      thumbnail,
		Category:       category,
		CategoryURL:    utils.Slugify(category),
		Tags:           splitTags(ctx.PostForm("tags")),
		MainArticleURL: ctx.PostForm("mainArticleUrl"),
		IsFeatured:     ctx.PostForm("isFeatured") == "true",
	}

	if err := a.db.Create(&article).Error; err != nil {
		utils.Fail(ctx, "failed to create article", err)
		return
	}

	// The slug suffix needs the generated id, so the URL lands in a
	// second write.
	article.URL = articleURL(article.Title, article.ID)
	if err := a.db.Model(&article).Update("url", article.URL).Error; err != nil {
		utils.Fail(ctx, "failed to assign article url", err)
		return
	}

	utils.InvalidateByPrefix(utils.AnalyticsCachePrefix)
	ctx.JSON(http.StatusCreated, gin.H{"message": "Article added successfully", "article": article})
}

// ListArticles returns a filtered, paginated slice of the catalog,
// newest first.
func (a *ArticleController) ListArticles(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))

	tx := a.db.Model(&models.Article{})

	if category := ctx.Query("category"); category != "" {
		tx = tx.Where("category_url = ?", utils.Slugify(category))
	}

	for _, tag := range splitTags(ctx.Query("tags")) {
		// Tags are stored comma joined; match each requested tag as a
		// full element, case-insensitively.
		tx = tx.Where("FIND_IN_SET(?, LOWER(tags)) > 0", strings.ToLower(tag))
	}

	if date := ctx.Query("date"); date != "" {
		day, err := time.ParseInLocation(articleDateLayout, date, time.UTC)
		if err != nil {
			utils.BadRequest(ctx, "date must be YYYY-MM-DD")
			return
		}
		tx = tx.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
	}

	if search := ctx.Query("search"); search != "" {
		// Whole-word match over the text columns.
		pattern := `\b` + regexp.QuoteMeta(search) + `\b`
		tx = tx.Where("title REGEXP ? OR summary REGEXP ? OR description REGEXP ?", pattern, pattern, pattern)
	}

	switch ctx.Query("isFeatured") {
	case "true":
		tx = tx.Where("is_featured = ?", true)
	case "false":
		tx = tx.Where("is_featured = ?", false)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		utils.Fail(ctx, "failed to count articles", err)
		return
	}

	var articles []models.Article
	if err := tx.Order("date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error; err != nil {
		utils.Fail(ctx, "failed to list articles", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"totalArticles": total,
		"totalPages":    int(math.Ceil(float64(total) / float64(limit))),
		"currentPage":   page,
		"articles":      articles,
	})
}

// GetHomepageArticles groups the catalog for the landing page: featured
// articles first, then the latest per category excluding the featured
// ones to avoid repetition.
func (a *ArticleController) GetHomepageArticles(ctx *gin.Context) {
	limit := 5
	if raw := ctx.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var categories []models.Category
	if err := a.db.Order("name ASC").Find(&categories).Error; err != nil {
		utils.Fail(ctx, "failed to load categories", err)
		return
	}

	var featured []models.Article
	if err := a.db.Where("is_featured = ?", true).
		Order("date DESC").Limit(limit).
		Find(&featured).Error; err != nil {
		utils.Fail(ctx, "failed to load featured articles", err)
		return
	}

	featuredIDs := make([]uint, 0, len(featured))
	for _, art := range featured {
		featuredIDs = append(featuredIDs, art.ID)
	}

	result := gin.H{"featuredArticles": featured}
	for _, cat := range categories {
		tx := a.db.Where("category_url = ?", cat.URL)
		if len(featuredIDs) > 0 {
			tx = tx.Where("id NOT IN ?", featuredIDs)
		}
		var articles []models.Article
		if err := tx.Order("date DESC").Limit(limit).Find(&articles).Error; err != nil {
			utils.Fail(ctx, "failed to load category articles", err)
			return
		}
		if len(articles) > 0 {
			result[cat.Name] = articles
		}
	}

	ctx.JSON(http.StatusOK, result)
}

// GetArticleByID returns one article or 404.
func (a *ArticleController) GetArticleByID(ctx *gin.Context) {
	var article models.Article
	if err := a.db.First(&article, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Article not found")
			return
		}
		utils.Fail(ctx, "failed to load article", err)
		return
	}
	ctx.JSON(http.StatusOK, article)
}

// GetArticleByURL returns one article by its slug URL or 404.
func (a *ArticleController) GetArticleByURL(ctx *gin.Context) {
	var article models.Article
	if err := a.db.First(&article, "url = ?", ctx.Param("url")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Article not found")
			return
		}
		utils.Fail(ctx, "failed to load article", err)
		return
	}
	ctx.JSON(http.StatusOK, article)
}

// UpdateArticle applies a partial update. A field changes only when its
// form key is present in the request, so false and zero values round-trip
// correctly. A new thumbnail replaces the stored file; removing the old
// one is best effort and never rolls back the record write.
func (a *ArticleController) UpdateArticle(ctx *gin.Context) {
	var article models.Article
	if err := a.db.First(&article, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Article not found")
			return
		}
		utils.Fail(ctx, "failed to load article", err)
		return
	}

	oldThumbnail := ""
	if file, err := ctx.FormFile("thumbnail"); err == nil {
		stored, err := a.saveThumbnail(ctx, file)
		if err != nil {
			utils.Fail(ctx, "failed to store thumbnail", err)
			return
		}
		oldThumbnail = article.Thumbnail
		article.Thumbnail = stored
	}

	if title, ok := ctx.GetPostForm("title"); ok {
		if title == "" {
			utils.BadRequest(ctx, "title cannot be empty")
			return
		}
		article.Title = title
		article.URL = articleURL(title, article.ID)
	}
	if summary, ok := ctx.GetPostForm("summary"); ok {
		article.Summary = summary
	}
	if description, ok := ctx.GetPostForm("description"); ok {
		article.Description = utils.Sanitize(description)
	}
	if date, ok := ctx.GetPostForm("date"); ok {
		parsed, err := time.ParseInLocation(articleDateLayout, date, time.UTC)
		if err != nil {
			utils.BadRequest(ctx, "date must be YYYY-MM-DD")
			return
		}
		article.Date = parsed
	}
	if readTime, ok := ctx.GetPostForm("readTime"); ok {
		article.ReadTime = readTime
	}
	if author, ok := ctx.GetPostForm("author"); ok {
		article.Author = author
	}
	if category, ok := ctx.GetPostForm("category"); ok {
		article.Category = category
		article.CategoryURL = utils.Slugify(category)
	}
	if tags, ok := ctx.GetPostForm("tags"); ok {
		article.Tags = splitTags(tags)
	}
	if mainURL, ok := ctx.GetPostForm("mainArticleUrl"); ok {
		article.MainArticleURL = mainURL
	}
	if featured, ok := ctx.GetPostForm("isFeatured"); ok {
		parsed, err := strconv.ParseBool(featured)
		if err != nil {
			utils.BadRequest(ctx, "isFeatured must be true or false")
			return
		}
		article.IsFeatured = parsed
	}

	if err := a.db.Save(&article).Error; err != nil {
		utils.Fail(ctx, "failed to update article", err)
		return
	}

	if oldThumbnail != "" {
		a.removeThumbnailFile(oldThumbnail)
	}

	utils.InvalidateByPrefix(utils.AnalyticsCachePrefix)
	ctx.JSON(http.StatusOK, gin.H{"message": "Article updated successfully", "article": article})
}

// DeleteArticle removes the record and best-effort deletes its thumbnail
// file. Page view events referencing the article stay behind as dangling
// references.
func (a *ArticleController) DeleteArticle(ctx *gin.Context) {
	var article models.Article
	if err := a.db.First(&article, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Article not found")
			return
		}
		utils.Fail(ctx, "failed to load article", err)
		return
	}

	if err := a.db.Delete(&article).Error; err != nil {
		utils.Fail(ctx, "failed to delete article", err)
		return
	}

	a.removeThumbnailFile(article.Thumbnail)
	utils.InvalidateByPrefix(utils.AnalyticsCachePrefix)
	utils.Message(ctx, http.StatusOK, "Article deleted successfully")
}

// GetArticleCategories returns the distinct category/categoryUrl pairs
// present on articles. This reflects what was written at article save
// time and may drift from the category table after renames.
func (a *ArticleController) GetArticleCategories(ctx *gin.Context) {
	type pair struct {
		Category    string `json:"category"`
		CategoryURL string `json:"categoryUrl"`
	}
	var pairs []pair
	if err := a.db.Model(&models.Article{}).
		Distinct("category", "category_url").
		Order("category ASC").
		Scan(&pairs).Error; err != nil {
		utils.Fail(ctx, "failed to load categories", err)
		return
	}
	ctx.JSON(http.StatusOK, pairs)
}

// GetAllTags returns every distinct tag across the catalog.
func (a *ArticleController) GetAllTags(ctx *gin.Context) {
	var raw []string
	if err := a.db.Model(&models.Article{}).Pluck("tags", &raw).Error; err != nil {
		utils.Fail(ctx, "failed to load tags", err)
		return
	}

	seen := map[string]struct{}{}
	tags := []string{}
	for _, joined := range raw {
		for _, tag := range splitTags(joined) {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	ctx.JSON(http.StatusOK, tags)
}

// saveThumbnail stores an uploaded image under the configured upload dir
// with a random name and returns its public URL path.
func (a *ArticleController) saveThumbnail(ctx *gin.Context, file *multipart.FileHeader) (string, error) {
	cfg := config.Get()
	maxSize := int64(cfg.UploadMaxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return "", fmt.Errorf("thumbnail exceeds %dMB limit", cfg.UploadMaxSizeMB)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := ctx.SaveUploadedFile(file, filepath.Join(cfg.UploadDir, name)); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

// removeThumbnailFile deletes a stored thumbnail by its public URL path.
// Failures are logged only; the sweeper retries orphans later.
func (a *ArticleController) removeThumbnailFile(publicURL string) {
	if publicURL == "" {
		return
	}
	path := filepath.Join(config.Get().UploadDir, filepath.Base(publicURL))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		utils.Sugar.Warnf("failed to remove thumbnail %s: %v", path, err)
	}
}

// articleURL derives the stable slug for an article from its title and id.
func articleURL(title string, id uint) string {
	return utils.Slugify(title) + "-" + strconv.FormatUint(uint64(id), 10)
}

func splitTags(raw string) models.TagList {
	if raw == "" {
		return models.TagList{}
	}
	parts := strings.Split(raw, ",")
	tags := make(models.TagList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func parsePagination(pageStr, limitStr string) (int, int) {
	page := 1
	limit := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}
