package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/store"
	"github.com/pixpointrepo/marcom-backend/utils"
)

// AnalyticsController exposes the page-view intake and the read-only
// reports composed over the event log joined with the article catalog.
type AnalyticsController struct {
	store store.AnalyticsStore
}

// NewAnalyticsController creates a new AnalyticsController instance.
func NewAnalyticsController(st store.AnalyticsStore) *AnalyticsController {
	return &AnalyticsController{store: st}
}

type pageViewRequest struct {
	PageURL   string `json:"pageUrl"`
	UserUUID  string `json:"userUuid"`
	ArticleID *uint  `json:"articleId"`
}

// RecordPageView appends one view event. pageUrl and userUuid are
// required; articleId is optional and deliberately not checked against
// the catalog, so dangling references can accumulate and the reports
// must tolerate them.
func (a *AnalyticsController) RecordPageView(ctx *gin.Context) {
	var req pageViewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, "pageUrl and userUuid are required")
		return
	}
	if req.PageURL == "" || req.UserUUID == "" {
		utils.BadRequest(ctx, "pageUrl and userUuid are required")
		return
	}

	view := models.PageView{
		PageURL:   req.PageURL,
		UserUUID:  req.UserUUID,
		ArticleID: req.ArticleID,
	}
	if err := a.store.RecordView(ctx.Request.Context(), &view); err != nil {
		utils.Fail(ctx, "failed to record page view", err)
		return
	}
	utils.Message(ctx, http.StatusCreated, "Page view recorded")
}

// parseRange reads the optional startDate/endDate query params. It writes
// the 400 itself when a date is malformed.
func (a *AnalyticsController) parseRange(ctx *gin.Context) (utils.DateRange, bool) {
	r, err := utils.BuildDateRange(ctx.Query("startDate"), ctx.Query("endDate"))
	if err != nil {
		utils.BadRequest(ctx, err.Error())
		return utils.DateRange{}, false
	}
	return r, true
}

// report runs fetch through the redis read-through cache keyed by the
// request path and query. Cache failures fall back to a live query.
func (a *AnalyticsController) report(ctx *gin.Context, failMsg string, fetch func() (interface{}, error)) {
	key := utils.AnalyticsCachePrefix + ctx.Request.URL.Path
	if q := ctx.Request.URL.RawQuery; q != "" {
		key += "?" + q
	}
	if b, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	data, err := fetch()
	if err != nil {
		utils.Fail(ctx, failMsg, err)
		return
	}
	utils.CacheSetJSON(key, data, utils.AnalyticsCacheTTL())
	ctx.JSON(http.StatusOK, data)
}

// GetTotalPageViews returns the event count in range.
func (a *AnalyticsController) GetTotalPageViews(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}
	a.report(ctx, "failed to fetch total page views", func() (interface{}, error) {
		total, err := a.store.TotalViews(ctx.Request.Context(), r)
		if err != nil {
			return nil, err
		}
		return gin.H{"totalPageViews": total}, nil
	})
}

// GetUniqueUsers returns the distinct visitor count in range.
func (a *AnalyticsController) GetUniqueUsers(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}
	a.report(ctx, "failed to fetch unique users", func() (interface{}, error) {
		users, err := a.store.UniqueUsers(ctx.Request.Context(), r)
		if err != nil {
			return nil, err
		}
		return gin.H{"uniqueUsers": users}, nil
	})
}

// GetViewsPerArticle returns the ten most viewed articles with catalog
// details; unresolved article references appear with null fields.
func (a *AnalyticsController) GetViewsPerArticle(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}
	a.report(ctx, "failed to fetch views per article", func() (interface{}, error) {
		return a.store.ViewsPerArticle(ctx.Request.Context(), r)
	})
}

// GetViewsOverTime returns per-day counts, ascending, sparse.
func (a *AnalyticsController) GetViewsOverTime(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}
	a.report(ctx, "failed to fetch views over time", func() (interface{}, error) {
		return a.store.ViewsOverTime(ctx.Request.Context(), r)
	})
}

// GetViewsByCategory returns per-category counts, descending. Events
// without a resolvable category are excluded.
func (a *AnalyticsController) GetViewsByCategory(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}
	a.report(ctx, "failed to fetch views by category", func() (interface{}, error) {
		return a.store.ViewsByCategory(ctx.Request.Context(), r)
	})
}

// GetOverview returns total views, unique users, resolvable articles
// viewed and the derived average, all under one date filter.
func (a *AnalyticsController) GetOverview(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}
	a.report(ctx, "failed to fetch analytics overview", func() (interface{}, error) {
		return a.store.GetOverview(ctx.Request.Context(), r)
	})
}

// GetArticleAnalytics returns per-article view/user stats with caller
// chosen category filter, sort field, sort order and limit.
func (a *AnalyticsController) GetArticleAnalytics(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}

	sortBy := ctx.Query("sortBy")
	if !store.ValidSortField(sortBy) {
		utils.BadRequest(ctx, "unsupported sortBy field")
		return
	}
	sortOrder := ctx.Query("sortOrder")
	if sortOrder != "" && !strings.EqualFold(sortOrder, "asc") && !strings.EqualFold(sortOrder, "desc") {
		utils.BadRequest(ctx, "sortOrder must be asc or desc")
		return
	}

	limit := 10
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.BadRequest(ctx, "limit must be a positive integer")
			return
		}
		limit = n
	}

	q := store.ArticleAnalyticsQuery{
		Range:     r,
		Category:  ctx.Query("category"),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Limit:     limit,
	}
	a.report(ctx, "failed to fetch article analytics", func() (interface{}, error) {
		return a.store.ArticleAnalytics(ctx.Request.Context(), q)
	})
}

// GetTrends returns bucketed counts at the chosen granularity, optionally
// restricted to one category.
func (a *AnalyticsController) GetTrends(ctx *gin.Context) {
	r, ok := a.parseRange(ctx)
	if !ok {
		return
	}

	granularity := ctx.Query("granularity")
	if !store.ValidGranularity(granularity) {
		utils.BadRequest(ctx, "granularity must be hour, day, week or month")
		return
	}

	category := ctx.Query("category")
	a.report(ctx, "failed to fetch trends", func() (interface{}, error) {
		return a.store.Trends(ctx.Request.Context(), r, granularity, category)
	})
}
