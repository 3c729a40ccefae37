package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/cache"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/export"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/lookup"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/session"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ExecuteReport(ctx context.Context, stmt models.Statement) (*models.QueryResult, error) {
	args := m.Called(ctx, stmt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QueryResult), args.Error(1)
}

func (m *mockBackend) ListBranches(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Branch), args.Error(1)
}

func (m *mockBackend) ListProducts(ctx context.Context, category int64) ([]models.Product, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *mockBackend) GetInstitute(ctx context.Context) (*models.Institute, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Institute), args.Error(1)
}

func (m *mockBackend) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func savingsRows(n int) []models.ReportRow {
	rows := make([]models.ReportRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.ReportRow{
			"branch_id":       int64(4),
			"branch_name":     "Galle",
			"account_number":  fmt.Sprintf("SV-%04d", i+1),
			"product_name":    "Children Savings",
			"account_balance": "1,000.00",
		})
	}
	return rows
}

func newTestServer(t *testing.T, backend *mockBackend, secret string) *httptest.Server {
	t.Helper()

	store := session.NewStore(backend, time.Hour, 100)
	t.Cleanup(store.Close)

	stats := cache.NewStatsCache(cache.NewMemoryCache(10, 0), 10)
	lookups := lookup.NewService(backend, stats, time.Minute)
	h := NewReportHandler(reports.Default(), store, lookups, export.NewExporter())

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthCheck(backend, nil))
		r.Group(func(r chi.Router) {
			r.Use(RequireJWT(secret))
			h.Mount(r)
			NewCacheHandler(stats).Mount(r)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func okLookups(backend *mockBackend) {
	backend.On("ListBranches", mock.Anything).Return([]models.Branch{{ID: 4, Name: "Galle"}}, nil)
	backend.On("ListProducts", mock.Anything, mock.Anything).Return([]models.Product{{ID: 7, Name: "Children Savings"}}, nil)
	backend.On("GetInstitute", mock.Anything).Return(&models.Institute{ID: 1, Name: "Sample Society"}, nil)
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func createSession(t *testing.T, base, reportType string) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, base+"/api/v1/reports/"+reportType+"/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var v session.View
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, session.StatusIdle, v.Status)
	return v.SessionID
}

func TestReportFlow(t *testing.T) {
	backend := new(mockBackend)
	okLookups(backend)
	backend.On("ExecuteReport", mock.Anything, mock.Anything).Return(&models.QueryResult{
		Success: true,
		Data:    savingsRows(25),
		Columns: []string{"branch_id", "branch_name", "account_number", "product_name", "account_balance"},
	}, nil)

	srv := newTestServer(t, backend, "")
	id := createSession(t, srv.URL, "personal-savings")
	base := srv.URL + "/api/v1/sessions/" + id

	resp, body := do(t, http.MethodPost, base+"/generate", `{"branch_id":"4","branch_name":"Galle"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var v session.View
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, session.StatusReady, v.Status)
	assert.Equal(t, models.LevelProduct, v.Drill.Level)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "25,000.00", v.Rows[0].Values["Total Balance"])

	resp, body = do(t, http.MethodPost, base+"/drill", `{"id":"Children Savings"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, models.LevelDetail, v.Drill.Level)
	assert.Len(t, v.Rows, 10)
	assert.Equal(t, 3, v.Page.TotalPages)

	resp, body = do(t, http.MethodGet, base+"?page=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Len(t, v.Rows, 5)
	assert.Equal(t, []int{1, 2, 3}, v.Page.VisiblePageNumbers)

	resp, body = do(t, http.MethodGet, base+"?page=next", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, 3, v.Page.CurrentPage)

	resp, body = do(t, http.MethodGet, base+"?page=prev", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, 2, v.Page.CurrentPage)
	assert.Len(t, v.Rows, 10)

	resp, _ = do(t, http.MethodGet, base+"?page=last", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodGet, base+"/export?format=csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="personal-savings-report.csv"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "25", resp.Header.Get("X-Export-Rows"))
	assert.Len(t, strings.Split(string(body), "\n"), 26)

	resp, body = do(t, http.MethodGet, base+"/print", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "Sample Society")
	assert.Contains(t, string(body), "Branch: Galle")

	resp, _ = do(t, http.MethodPost, base+"/fold", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, http.MethodPost, base+"/fold", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "already at base level")
}

func TestGenerate_ValidationError(t *testing.T) {
	backend := new(mockBackend)
	okLookups(backend)
	srv := newTestServer(t, backend, "")
	id := createSession(t, srv.URL, "loan-past-due")

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/sessions/"+id+"/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Please select a Branch Name"}`, string(body))
	backend.AssertNotCalled(t, "ExecuteReport", mock.Anything, mock.Anything)
}

func TestGenerate_BackendFailure(t *testing.T) {
	backend := new(mockBackend)
	okLookups(backend)
	backend.On("ExecuteReport", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	srv := newTestServer(t, backend, "")
	id := createSession(t, srv.URL, "personal-fd")

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/sessions/"+id+"/generate", `{}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to fetch Personal FD report"}`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/sessions/"+id+"/export", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLookups(t *testing.T) {
	backend := new(mockBackend)
	okLookups(backend)
	srv := newTestServer(t, backend, "")

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/reports/loan-past-due/lookups", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var l models.Lookups
	require.NoError(t, json.Unmarshal(body, &l))
	assert.Equal(t, "Galle", l.Branches[0].Name)
	backend.AssertCalled(t, "ListProducts", mock.Anything, reports.CategoryLoan)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/reports/customer/lookups", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLookupCache(t *testing.T) {
	backend := new(mockBackend)
	okLookups(backend)
	srv := newTestServer(t, backend, "")
	url := srv.URL + "/api/v1/reports/loan-past-due/lookups"

	do(t, http.MethodGet, url, "")
	do(t, http.MethodGet, url, "")
	backend.AssertNumberOfCalls(t, "ListBranches", 1)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/cache/lookups", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats cache.CacheStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/v1/cache/lookups", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	do(t, http.MethodGet, url, "")
	backend.AssertNumberOfCalls(t, "ListBranches", 2)
}

func TestLookups_Failure(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ListBranches", mock.Anything).Return(nil, errors.New("timeout"))
	backend.On("ListProducts", mock.Anything, mock.Anything).Return([]models.Product{}, nil)
	backend.On("GetInstitute", mock.Anything).Return(nil, nil)
	srv := newTestServer(t, backend, "")

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/reports/personal-fd/lookups", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to load dropdown data"}`, string(body))
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, new(mockBackend), "")

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/v1/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListReports(t *testing.T) {
	srv := newTestServer(t, new(mockBackend), "")

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/reports", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Reports []reportInfo `json:"reports"`
		Count   int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 4, out.Count)
	assert.Equal(t, []string{"installment", "past_due_days", "capital"}, out.Reports[0].Ranges)
}

func TestHealthCheck(t *testing.T) {
	backend := new(mockBackend)
	backend.On("Health", mock.Anything).Return(nil).Once()
	backend.On("Health", mock.Anything).Return(errors.New("down")).Once()
	srv := newTestServer(t, backend, "")

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequireJWT(t *testing.T) {
	backend := new(mockBackend)
	backend.On("Health", mock.Anything).Return(nil)
	srv := newTestServer(t, backend, "secret")

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/v1/reports", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := SignToken("secret", "teller-01", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/reports", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	expired, err := SignToken("secret", "teller-01", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+expired)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	wrong, err := SignToken("other", "x", jwt.RegisteredClaims{})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+wrong)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, errorStatus(session.ErrGenerateInFlight))
	assert.Equal(t, http.StatusNotFound, errorStatus(session.ErrUnknownBucket))
	assert.Equal(t, http.StatusBadGateway, errorStatus(&lookup.Error{Err: errors.New("x")}))
	assert.Equal(t, http.StatusInternalServerError, errorStatus(errors.New("boom")))
}
