package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/utils"
)

// ArticleViews is one row of the views-per-article report. The catalog
// fields are pointers because the report left-joins the article table:
// events whose article_id never resolved still produce a row, with every
// joined field null.
type ArticleViews struct {
	ArticleID *uint      `json:"articleId"`
	Views     int64      `json:"views"`
	Category  *string    `json:"category"`
	Title     *string    `json:"title"`
	Thumbnail *string    `json:"thumbnail"`
	Summary   *string    `json:"summary"`
	Date      *time.Time `json:"date"`
	ReadTime  *string    `json:"readTime"`
	Author    *string    `json:"author"`
}

// DailyViews is one calendar day with at least one event. Days without
// events are not represented.
type DailyViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// CategoryViews counts events joined to a resolvable article category.
type CategoryViews struct {
	Category string `json:"category"`
	Views    int64  `json:"views"`
}

// Overview aggregates the whole event log under one date filter.
type Overview struct {
	TotalViews      int64   `json:"totalViews"`
	UniqueUsers     int64   `json:"uniqueUsers"`
	AvgViewsPerUser float64 `json:"avgViewsPerUser"`
	ArticlesViewed  int64   `json:"articlesViewed"`
}

// ArticleStats is one row of the per-article analytics report.
type ArticleStats struct {
	ArticleID       uint    `json:"articleId"`
	Views           int64   `json:"views"`
	UniqueUsers     int64   `json:"uniqueUsers"`
	AvgViewsPerUser float64 `json:"avgViewsPerUser"`
	Title           string  `json:"title"`
	Thumbnail       string  `json:"thumbnail"`
	Category        string  `json:"category"`
}

// TrendPoint is one time bucket of the trends report.
type TrendPoint struct {
	Time        string `gorm:"column:time" json:"time"`
	Views       int64  `json:"views"`
	UniqueUsers int64  `json:"uniqueUsers"`
}

// ArticleAnalyticsQuery carries the caller-chosen knobs of the
// per-article report.
type ArticleAnalyticsQuery struct {
	Range     utils.DateRange
	Category  string
	SortBy    string
	SortOrder string
	Limit     int
}

// AnalyticsStore is the event-log accessor plus the read-only reports
// composed over it joined with the article catalog.
type AnalyticsStore interface {
	RecordView(ctx context.Context, view *models.PageView) error
	TotalViews(ctx context.Context, r utils.DateRange) (int64, error)
	UniqueUsers(ctx context.Context, r utils.DateRange) (int64, error)
	ViewsPerArticle(ctx context.Context, r utils.DateRange) ([]ArticleViews, error)
	ViewsOverTime(ctx context.Context, r utils.DateRange) ([]DailyViews, error)
	ViewsByCategory(ctx context.Context, r utils.DateRange) ([]CategoryViews, error)
	GetOverview(ctx context.Context, r utils.DateRange) (Overview, error)
	ArticleAnalytics(ctx context.Context, q ArticleAnalyticsQuery) ([]ArticleStats, error)
	Trends(ctx context.Context, r utils.DateRange, granularity, category string) ([]TrendPoint, error)
}

// bucketFormats whitelists DATE_FORMAT patterns per granularity. %x/%v is
// the ISO year/week pair, so week buckets never straddle a year boundary.
var bucketFormats = map[string]string{
	"hour":  "%Y-%m-%d %H:00",
	"day":   "%Y-%m-%d",
	"week":  "%x-W%v",
	"month": "%Y-%m",
}

// sortColumns whitelists the sortable fields of the per-article report.
// Caller input never reaches the ORDER BY clause directly.
var sortColumns = map[string]string{
	"views":           "views",
	"uniqueUsers":     "unique_users",
	"avgViewsPerUser": "avg_views_per_user",
	"title":           "articles.title",
	"date":            "articles.date",
}

// ValidSortField reports whether the per-article report can sort by s.
func ValidSortField(s string) bool {
	_, ok := sortColumns[s]
	return s == "" || ok
}

// ValidGranularity reports whether s names a known trend bucket size.
func ValidGranularity(s string) bool {
	_, ok := bucketFormats[s]
	return s == "" || ok
}

// GormAnalyticsStore implements AnalyticsStore on MySQL through GORM.
type GormAnalyticsStore struct {
	db *gorm.DB
}

// NewAnalyticsStore creates a GORM backed analytics store.
func NewAnalyticsStore(db *gorm.DB) *GormAnalyticsStore {
	return &GormAnalyticsStore{db: db}
}

// RecordView appends one immutable page view event. The timestamp is
// always assigned here; client-supplied values are ignored. No dedup: a
// repeated identical request creates another row.
func (s *GormAnalyticsStore) RecordView(ctx context.Context, view *models.PageView) error {
	view.Timestamp = time.Now().UTC()
	return s.db.WithContext(ctx).Create(view).Error
}

// TotalViews counts every event in range, article related or not.
func (s *GormAnalyticsStore) TotalViews(ctx context.Context, r utils.DateRange) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Scopes(r.Scope("timestamp")).
		Count(&n).Error
	return n, err
}

// UniqueUsers counts distinct anonymous visitor identifiers in range.
func (s *GormAnalyticsStore) UniqueUsers(ctx context.Context, r utils.DateRange) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Scopes(r.Scope("timestamp")).
		Distinct("user_uuid").
		Count(&n).Error
	return n, err
}

// articlesViewed counts distinct article ids that resolve against the catalog.
func (s *GormAnalyticsStore) articlesViewed(ctx context.Context, r utils.DateRange) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Joins("JOIN articles ON articles.id = page_views.article_id").
		Scopes(r.Scope("page_views.timestamp")).
		Distinct("page_views.article_id").
		Count(&n).Error
	return n, err
}

// ViewsPerArticle groups events by article, left-joins the catalog and
// returns the ten most viewed. Events with a dangling or absent
// article_id form their own groups and appear with null catalog fields.
func (s *GormAnalyticsStore) ViewsPerArticle(ctx context.Context, r utils.DateRange) ([]ArticleViews, error) {
	var rows []ArticleViews
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select(`page_views.article_id AS article_id,
			COUNT(*) AS views,
			articles.category AS category,
			articles.title AS title,
			articles.thumbnail AS thumbnail,
			articles.summary AS summary,
			articles.date AS date,
			articles.read_time AS read_time,
			articles.author AS author`).
		Joins("LEFT JOIN articles ON articles.id = page_views.article_id").
		Scopes(r.Scope("page_views.timestamp")).
		Group("page_views.article_id, articles.id").
		Order("views DESC").
		Limit(10).
		Scan(&rows).Error
	return rows, err
}

// ViewsOverTime buckets events per UTC calendar day, ascending. Output is
// sparse: a day without events yields no entry rather than a zero.
func (s *GormAnalyticsStore) ViewsOverTime(ctx context.Context, r utils.DateRange) ([]DailyViews, error) {
	var rows []DailyViews
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("DATE_FORMAT(timestamp, '%Y-%m-%d') AS date, COUNT(*) AS views").
		Scopes(r.Scope("timestamp")).
		Group("date").
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}

// ViewsByCategory counts events per article category, descending. Unlike
// ViewsPerArticle this is an inner join: events whose article or category
// cannot be resolved are excluded entirely.
func (s *GormAnalyticsStore) ViewsByCategory(ctx context.Context, r utils.DateRange) ([]CategoryViews, error) {
	var rows []CategoryViews
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("articles.category AS category, COUNT(*) AS views").
		Joins("JOIN articles ON articles.id = page_views.article_id").
		Where("articles.category <> ''").
		Scopes(r.Scope("page_views.timestamp")).
		Group("articles.category").
		Order("views DESC").
		Scan(&rows).Error
	return rows, err
}

// GetOverview runs the three overview counts concurrently under the same
// date filter. There is no ordering dependency between them; if any one
// fails the whole operation fails with no partial result.
func (s *GormAnalyticsStore) GetOverview(ctx context.Context, r utils.DateRange) (Overview, error) {
	var (
		ov   Overview
		errs [3]error
		wg   sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		ov.TotalViews, errs[0] = s.TotalViews(ctx, r)
	}()
	go func() {
		defer wg.Done()
		ov.UniqueUsers, errs[1] = s.UniqueUsers(ctx, r)
	}()
	go func() {
		defer wg.Done()
		ov.ArticlesViewed, errs[2] = s.articlesViewed(ctx, r)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Overview{}, err
		}
	}

	ov.AvgViewsPerUser = avgPerUser(ov.TotalViews, ov.UniqueUsers)
	return ov, nil
}

// ArticleAnalytics groups events by article with per-article view and
// distinct-user counts, inner-joined against the catalog. Sort field and
// order come from the caller but only through the whitelist.
func (s *GormAnalyticsStore) ArticleAnalytics(ctx context.Context, q ArticleAnalyticsQuery) ([]ArticleStats, error) {
	sortCol, ok := sortColumns[q.SortBy]
	if q.SortBy == "" {
		sortCol = "views"
	} else if !ok {
		return nil, fmt.Errorf("unsupported sortBy %q", q.SortBy)
	}

	order := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		order = "ASC"
	} else if q.SortOrder != "" && !strings.EqualFold(q.SortOrder, "desc") {
		return nil, fmt.Errorf("unsupported sortOrder %q", q.SortOrder)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	tx := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select(`page_views.article_id AS article_id,
			COUNT(*) AS views,
			COUNT(DISTINCT page_views.user_uuid) AS unique_users,
			ROUND(COUNT(*) / COUNT(DISTINCT page_views.user_uuid), 2) AS avg_views_per_user,
			articles.title AS title,
			articles.thumbnail AS thumbnail,
			articles.category AS category`).
		Joins("JOIN articles ON articles.id = page_views.article_id").
		Scopes(q.Range.Scope("page_views.timestamp"))
	if q.Category != "" {
		tx = tx.Where("articles.category = ?", q.Category)
	}

	var rows []ArticleStats
	err := tx.Group("page_views.article_id, articles.id").
		Order(sortCol + " " + order).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Trends buckets events by the chosen granularity with a distinct-user
// count per bucket, optionally restricted to one category via the catalog
// join. Buckets are sparse, ascending.
func (s *GormAnalyticsStore) Trends(ctx context.Context, r utils.DateRange, granularity, category string) ([]TrendPoint, error) {
	if granularity == "" {
		granularity = "day"
	}
	format, ok := bucketFormats[granularity]
	if !ok {
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}

	tx := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select(fmt.Sprintf(`DATE_FORMAT(page_views.timestamp, '%s') AS time,
			COUNT(*) AS views,
			COUNT(DISTINCT page_views.user_uuid) AS unique_users`, format)).
		Scopes(r.Scope("page_views.timestamp"))
	if category != "" {
		tx = tx.Joins("JOIN articles ON articles.id = page_views.article_id").
			Where("articles.category = ?", category)
	}

	var rows []TrendPoint
	err := tx.Group("time").Order("time ASC").Scan(&rows).Error
	return rows, err
}

// avgPerUser rounds views/users to two decimals, returning 0 for an empty
// user set instead of dividing by zero.
func avgPerUser(views, users int64) float64 {
	if users == 0 {
		return 0
	}
	return math.Round(float64(views)/float64(users)*100) / 100
}
