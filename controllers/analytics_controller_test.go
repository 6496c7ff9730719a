package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/store"
	"github.com/pixpointrepo/marcom-backend/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "controllers-test-secret")
	// Point the cache at a port nothing listens on so every lookup is a miss.
	os.Setenv("REDIS_PORT", "1")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeAnalyticsStore records calls and serves canned report rows.
type fakeAnalyticsStore struct {
	recorded []models.PageView
	lastQ    store.ArticleAnalyticsQuery

	perArticle []store.ArticleViews
	overTime   []store.DailyViews
	byCategory []store.CategoryViews
	overview   store.Overview
	stats      []store.ArticleStats
	trends     []store.TrendPoint
}

func (f *fakeAnalyticsStore) RecordView(_ context.Context, v *models.PageView) error {
	v.Timestamp = time.Now().UTC()
	f.recorded = append(f.recorded, *v)
	return nil
}

func (f *fakeAnalyticsStore) TotalViews(context.Context, utils.DateRange) (int64, error) {
	return f.overview.TotalViews, nil
}

func (f *fakeAnalyticsStore) UniqueUsers(context.Context, utils.DateRange) (int64, error) {
	return f.overview.UniqueUsers, nil
}

func (f *fakeAnalyticsStore) ViewsPerArticle(context.Context, utils.DateRange) ([]store.ArticleViews, error) {
	return f.perArticle, nil
}

func (f *fakeAnalyticsStore) ViewsOverTime(context.Context, utils.DateRange) ([]store.DailyViews, error) {
	return f.overTime, nil
}

func (f *fakeAnalyticsStore) ViewsByCategory(context.Context, utils.DateRange) ([]store.CategoryViews, error) {
	return f.byCategory, nil
}

func (f *fakeAnalyticsStore) GetOverview(context.Context, utils.DateRange) (store.Overview, error) {
	return f.overview, nil
}

func (f *fakeAnalyticsStore) ArticleAnalytics(_ context.Context, q store.ArticleAnalyticsQuery) ([]store.ArticleStats, error) {
	f.lastQ = q
	return f.stats, nil
}

func (f *fakeAnalyticsStore) Trends(context.Context, utils.DateRange, string, string) ([]store.TrendPoint, error) {
	return f.trends, nil
}

func analyticsRouter(f *fakeAnalyticsStore) *gin.Engine {
	c := NewAnalyticsController(f)
	r := gin.New()
	r.POST("/pageview", c.RecordPageView)
	r.GET("/views-per-article", c.GetViewsPerArticle)
	r.GET("/views-over-time", c.GetViewsOverTime)
	r.GET("/overview", c.GetOverview)
	r.GET("/article-analytics", c.GetArticleAnalytics)
	r.GET("/trends", c.GetTrends)
	return r
}

func get(r *gin.Engine, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r *gin.Engine, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordPageViewMissingFields(t *testing.T) {
	f := &fakeAnalyticsStore{}
	r := analyticsRouter(f)

	for _, body := range []string{
		`{}`,
		`{"pageUrl":"/x"}`,
		`{"userUuid":"u1"}`,
		`{"pageUrl":"","userUuid":"u1"}`,
	} {
		w := postJSON(r, "/pageview", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
	if len(f.recorded) != 0 {
		t.Errorf("store gained %d rows from rejected requests", len(f.recorded))
	}
}

func TestRecordPageViewSuccess(t *testing.T) {
	f := &fakeAnalyticsStore{}
	r := analyticsRouter(f)

	w := postJSON(r, "/pageview", `{"pageUrl":"/x","userUuid":"u1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	if len(f.recorded) != 1 {
		t.Fatalf("recorded %d views, want 1", len(f.recorded))
	}
	v := f.recorded[0]
	if v.PageURL != "/x" || v.UserUUID != "u1" {
		t.Errorf("stored view = %+v", v)
	}
	if v.ArticleID != nil {
		t.Errorf("articleId should stay nil for non-article pages, got %v", *v.ArticleID)
	}
	if v.Timestamp.IsZero() {
		t.Error("timestamp must be assigned server-side")
	}
}

func TestReportsRejectMalformedDates(t *testing.T) {
	r := analyticsRouter(&fakeAnalyticsStore{})
	for _, url := range []string{
		"/views-per-article?startDate=bogus",
		"/views-over-time?endDate=2025-99-01",
		"/overview?startDate=01/02/2025",
	} {
		if w := get(r, url); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, w.Code)
		}
	}
}

func TestGetViewsPerArticleIncludesUnresolved(t *testing.T) {
	id := uint(7)
	title := "Launch"
	f := &fakeAnalyticsStore{perArticle: []store.ArticleViews{
		{ArticleID: &id, Views: 3, Title: &title},
		{ArticleID: nil, Views: 1},
	}}
	w := get(analyticsRouter(f), "/views-per-article")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var rows []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1]["articleId"] != nil || rows[1]["title"] != nil {
		t.Errorf("unresolved row must keep null catalog fields, got %v", rows[1])
	}
}

func TestGetOverviewShape(t *testing.T) {
	f := &fakeAnalyticsStore{overview: store.Overview{
		TotalViews: 3, UniqueUsers: 2, AvgViewsPerUser: 1.5, ArticlesViewed: 1,
	}}
	w := get(analyticsRouter(f), "/overview")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var got store.Overview
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got != f.overview {
		t.Errorf("overview = %+v, want %+v", got, f.overview)
	}
}

func TestGetArticleAnalyticsValidation(t *testing.T) {
	f := &fakeAnalyticsStore{}
	r := analyticsRouter(f)

	for _, url := range []string{
		"/article-analytics?sortBy=bogus",
		"/article-analytics?sortOrder=sideways",
		"/article-analytics?limit=0",
		"/article-analytics?limit=ten",
	} {
		if w := get(r, url); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, w.Code)
		}
	}

	w := get(r, "/article-analytics?category=Growth&sortBy=uniqueUsers&sortOrder=asc&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	q := f.lastQ
	if q.Category != "Growth" || q.SortBy != "uniqueUsers" || q.SortOrder != "asc" || q.Limit != 5 {
		t.Errorf("query passed to store = %+v", q)
	}
}

func TestGetArticleAnalyticsDefaultLimit(t *testing.T) {
	f := &fakeAnalyticsStore{}
	w := get(analyticsRouter(f), "/article-analytics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if f.lastQ.Limit != 10 {
		t.Errorf("default limit = %d, want 10", f.lastQ.Limit)
	}
}

func TestGetTrendsValidation(t *testing.T) {
	r := analyticsRouter(&fakeAnalyticsStore{})
	if w := get(r, "/trends?granularity=minute"); w.Code != http.StatusBadRequest {
		t.Errorf("bad granularity: status = %d, want 400", w.Code)
	}
	for _, g := range []string{"", "hour", "day", "week", "month"} {
		url := "/trends"
		if g != "" {
			url += "?granularity=" + g
		}
		if w := get(r, url); w.Code != http.StatusOK {
			t.Errorf("granularity %q: status = %d, want 200", g, w.Code)
		}
	}
}

func TestViewsOverTimeOrderPreserved(t *testing.T) {
	f := &fakeAnalyticsStore{overTime: []store.DailyViews{
		{Date: "2025-03-01", Views: 2},
		{Date: "2025-03-03", Views: 1},
	}}
	w := get(analyticsRouter(f), "/views-over-time")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var rows []store.DailyViews
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	// Sparse output: the empty 2025-03-02 has no entry.
	if len(rows) != 2 || rows[0].Date >= rows[1].Date {
		t.Errorf("rows = %+v", rows)
	}
}
