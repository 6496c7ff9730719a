package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixpointrepo/marcom-backend/utils"
)

func TestAvgPerUser(t *testing.T) {
	cases := []struct {
		views, users int64
		want         float64
	}{
		{0, 0, 0},
		{100, 0, 0}, // no users never divides
		{3, 2, 1.5},
		{10, 3, 3.33},
		{20, 3, 6.67},
		{7, 7, 1},
	}
	for _, tc := range cases {
		if got := avgPerUser(tc.views, tc.users); got != tc.want {
			t.Errorf("avgPerUser(%d, %d) = %v, want %v", tc.views, tc.users, got, tc.want)
		}
	}
}

func TestValidSortField(t *testing.T) {
	for _, s := range []string{"", "views", "uniqueUsers", "avgViewsPerUser", "title", "date"} {
		if !ValidSortField(s) {
			t.Errorf("ValidSortField(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"views; DROP TABLE articles", "id", "VIEWS", "articles.title"} {
		if ValidSortField(s) {
			t.Errorf("ValidSortField(%q) = true, want false", s)
		}
	}
}

func TestValidGranularity(t *testing.T) {
	for _, s := range []string{"", "hour", "day", "week", "month"} {
		if !ValidGranularity(s) {
			t.Errorf("ValidGranularity(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"minute", "year", "Day", "weekly"} {
		if ValidGranularity(s) {
			t.Errorf("ValidGranularity(%q) = true, want false", s)
		}
	}
}

// fakeDB is a database/sql driver that records every statement and can
// serve canned result sets, so tests can assert the SQL the store
// composes without a MySQL server. An empty result set is served unless
// rowsFor is set; err fails every statement.
type fakeDB struct {
	mu      sync.Mutex
	queries []string
	args    [][]driver.Value
	err     error
	rowsFor func(query string) ([]string, [][]driver.Value)
}

func (f *fakeDB) record(query string, args []driver.NamedValue) ([]string, [][]driver.Value, error) {
	f.mu.Lock()
	vals := make([]driver.Value, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	f.queries = append(f.queries, query)
	f.args = append(f.args, vals)
	rowsFor := f.rowsFor
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return nil, nil, err
	}
	if rowsFor != nil {
		cols, rows := rowsFor(query)
		return cols, rows, nil
	}
	return nil, nil, nil
}

func (f *fakeDB) lastQuery(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatal("no statement reached the driver")
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeDB) Connect(context.Context) (driver.Conn, error) { return &fakeConn{db: f}, nil }
func (f *fakeDB) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through sql.OpenDB")
}

type fakeConn struct{ db *fakeDB }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{db: c.db, query: query}, nil
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

func (c *fakeConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	cols, rows, err := c.db.record(query, args)
	if err != nil {
		return nil, err
	}
	return &fakeRows{cols: cols, rows: rows}, nil
}

func (c *fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if _, _, err := c.db.record(query, args); err != nil {
		return nil, err
	}
	return fakeResult{}, nil
}

type fakeStmt struct {
	db    *fakeDB
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	if _, _, err := s.db.record(s.query, asNamed(args)); err != nil {
		return nil, err
	}
	return fakeResult{}, nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	cols, rows, err := s.db.record(s.query, asNamed(args))
	if err != nil {
		return nil, err
	}
	return &fakeRows{cols: cols, rows: rows}, nil
}

func asNamed(args []driver.Value) []driver.NamedValue {
	out := make([]driver.NamedValue, len(args))
	for i, a := range args {
		out[i] = driver.NamedValue{Ordinal: i + 1, Value: a}
	}
	return out
}

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	i    int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 1, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

func newFakeStore(t *testing.T, f *fakeDB) *GormAnalyticsStore {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sql.OpenDB(f),
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:               logger.Discard,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return NewAnalyticsStore(db)
}

func mustRange(t *testing.T, start, end string) utils.DateRange {
	t.Helper()
	r, err := utils.BuildDateRange(start, end)
	if err != nil {
		t.Fatalf("BuildDateRange(%q, %q): %v", start, end, err)
	}
	return r
}

func TestViewsPerArticleBuildsLeftJoinTopTen(t *testing.T) {
	f := &fakeDB{}
	st := newFakeStore(t, f)

	if _, err := st.ViewsPerArticle(context.Background(), mustRange(t, "2025-03-01", "2025-03-10")); err != nil {
		t.Fatalf("ViewsPerArticle: %v", err)
	}

	q := f.lastQuery(t)
	for _, want := range []string{
		"LEFT JOIN articles ON articles.id = page_views.article_id",
		"GROUP BY page_views.article_id, articles.id",
		"views DESC",
		"page_views.timestamp >= ?",
		"page_views.timestamp <= ?",
		"LIMIT",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
}

func TestViewsByCategoryBuildsInnerJoin(t *testing.T) {
	f := &fakeDB{}
	st := newFakeStore(t, f)

	if _, err := st.ViewsByCategory(context.Background(), mustRange(t, "2025-03-01", "2025-03-10")); err != nil {
		t.Fatalf("ViewsByCategory: %v", err)
	}

	q := f.lastQuery(t)
	if !strings.Contains(q, "JOIN articles ON articles.id = page_views.article_id") {
		t.Errorf("query missing catalog join:\n%s", q)
	}
	// Events whose article or category cannot be resolved must drop out
	// of this report entirely.
	if strings.Contains(q, "LEFT JOIN") {
		t.Errorf("expected inner join, got:\n%s", q)
	}
	if !strings.Contains(q, "articles.category <> ''") {
		t.Errorf("query keeps empty categories:\n%s", q)
	}
}

// The per-day buckets must sum to the total for the same range, which
// holds only while both queries filter the same population. Assert the
// two reports carry identical bound predicates and bound values.
func TestTotalAndOverTimeShareRangeBounds(t *testing.T) {
	f := &fakeDB{}
	st := newFakeStore(t, f)
	r := mustRange(t, "2025-03-01", "2025-03-10")
	ctx := context.Background()

	if _, err := st.TotalViews(ctx, r); err != nil {
		t.Fatalf("TotalViews: %v", err)
	}
	if _, err := st.ViewsOverTime(ctx, r); err != nil {
		t.Fatalf("ViewsOverTime: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) != 2 {
		t.Fatalf("executed %d statements, want 2", len(f.queries))
	}
	for i, q := range f.queries {
		if !strings.Contains(q, "timestamp >= ?") || !strings.Contains(q, "timestamp <= ?") {
			t.Errorf("statement %d missing range bounds:\n%s", i, q)
		}
		if len(f.args[i]) != 2 {
			t.Fatalf("statement %d carries %d args, want 2", i, len(f.args[i]))
		}
		from, _ := f.args[i][0].(time.Time)
		to, _ := f.args[i][1].(time.Time)
		if !from.Equal(r.From) || !to.Equal(r.To) {
			t.Errorf("statement %d bounds = (%v, %v), want (%v, %v)", i, from, to, r.From, r.To)
		}
	}
	if !strings.Contains(f.queries[1], "DATE_FORMAT(timestamp, '%Y-%m-%d')") {
		t.Errorf("over-time statement missing day bucket:\n%s", f.queries[1])
	}
	if !strings.Contains(f.queries[1], "ORDER BY date ASC") {
		t.Errorf("over-time statement not ascending:\n%s", f.queries[1])
	}
}

func TestGetOverviewFailsWhole(t *testing.T) {
	f := &fakeDB{err: errors.New("connection reset")}
	st := newFakeStore(t, f)

	ov, err := st.GetOverview(context.Background(), utils.DateRange{})
	if err == nil {
		t.Fatal("expected error when a count query fails")
	}
	if ov != (Overview{}) {
		t.Errorf("partial overview returned: %+v", ov)
	}
}

func TestGetOverviewDerivesAverage(t *testing.T) {
	// Three views by two users over one resolvable article.
	f := &fakeDB{rowsFor: func(q string) ([]string, [][]driver.Value) {
		switch {
		case strings.Contains(q, "JOIN articles"):
			return []string{"count"}, [][]driver.Value{{int64(1)}}
		case strings.Contains(q, "DISTINCT"):
			return []string{"count"}, [][]driver.Value{{int64(2)}}
		default:
			return []string{"count"}, [][]driver.Value{{int64(3)}}
		}
	}}
	st := newFakeStore(t, f)

	ov, err := st.GetOverview(context.Background(), utils.DateRange{})
	if err != nil {
		t.Fatalf("GetOverview: %v", err)
	}
	want := Overview{TotalViews: 3, UniqueUsers: 2, AvgViewsPerUser: 1.5, ArticlesViewed: 1}
	if ov != want {
		t.Errorf("overview = %+v, want %+v", ov, want)
	}
}

func TestArticleAnalyticsWhitelistsOrderBy(t *testing.T) {
	f := &fakeDB{}
	st := newFakeStore(t, f)

	q := ArticleAnalyticsQuery{SortBy: "uniqueUsers", SortOrder: "asc", Limit: 5}
	if _, err := st.ArticleAnalytics(context.Background(), q); err != nil {
		t.Fatalf("ArticleAnalytics: %v", err)
	}
	stmt := f.lastQuery(t)
	if !strings.Contains(stmt, "ORDER BY unique_users ASC") {
		t.Errorf("sort not mapped through whitelist:\n%s", stmt)
	}

	if _, err := st.ArticleAnalytics(context.Background(), ArticleAnalyticsQuery{SortBy: "1; DROP TABLE articles"}); err == nil {
		t.Error("unwhitelisted sort field must be rejected before reaching SQL")
	}
}
