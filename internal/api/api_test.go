package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/report"
)

const (
	testJWTSecret     = "test-secret"
	testAdminPassword = "password123"
)

type testServer struct {
	*httptest.Server
	svc   *inventory.Service
	token string
}

func setupTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	ctx := context.Background()

	database := db.NewTestDB(t)
	svc := inventory.New(database, inventory.Options{Metrics: cfg.Metrics})
	_, err := svc.Initialize(ctx, inventory.AdminSeed{Login: "admin", Password: testAdminPassword})
	require.NoError(t, err)

	reports := report.NewEngine(database, report.Options{SystemAccountID: svc.SystemAccountID()})
	cfg.JWTSecret = testJWTSecret
	server := httptest.NewServer(NewRouter(database, svc, reports, cfg))
	t.Cleanup(server.Close)

	ts := &testServer{Server: server, svc: svc}
	ts.token = ts.login(t, "admin", testAdminPassword)
	return ts
}

func (ts *testServer) login(t *testing.T, login, password string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": login, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out loginResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func (ts *testServer) createItem(t *testing.T, name string, minAmount int) model.Item {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/items", ts.token, map[string]any{
		"name":       name,
		"min_amount": minAmount,
		"unit":       "kg",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var item model.Item
	decode(t, resp, &item)
	return item
}

func TestLoginEndpoint(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "admin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "nobody", "password": "whatever1"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": inventory.SystemLogin, "password": "!"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "admin"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnauthenticatedAccess(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.do(t, http.MethodGet, "/api/items", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/items", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.do(t, http.MethodGet, "/api/items", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/auth/logout", ts.token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/items", ts.token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangeOwnPassword(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.do(t, http.MethodPut, "/api/auth/password", ts.token, map[string]string{
		"current_password": "wrong-password",
		"new_password":     "another-secret",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/auth/password", ts.token, map[string]string{
		"current_password": testAdminPassword,
		"new_password":     "another-secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ts.login(t, "admin", "another-secret")
}

func TestItemCRUD(t *testing.T) {
	ts := setupTestServer(t, Config{})
	item := ts.createItem(t, "Múka", 2)
	require.Zero(t, item.CurAmount)

	resp := ts.do(t, http.MethodPatch, "/api/items/"+itoa(item.ID), ts.token, map[string]any{
		"note":           "hladká",
		"add_attributes": []model.CustomAttribute{{Name: "pôvod", Content: "SK"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Item
	decode(t, resp, &updated)
	require.Equal(t, "hladká", updated.Note)
	require.Equal(t, "Múka", updated.Name)

	resp = ts.do(t, http.MethodGet, "/api/items/"+itoa(item.ID)+"/attributes", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var attrs []model.CustomAttribute
	decode(t, resp, &attrs)
	require.Equal(t, []model.CustomAttribute{{Name: "pôvod", Content: "SK"}}, attrs)

	resp = ts.do(t, http.MethodGet, "/api/items?q=ka", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.Item
	decode(t, resp, &items)
	require.Len(t, items, 1)

	resp = ts.do(t, http.MethodDelete, "/api/items/"+itoa(item.ID), ts.token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/items/"+itoa(item.ID), ts.token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/items/abc", ts.token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSupplyAndOfftake(t *testing.T) {
	ts := setupTestServer(t, Config{})
	item := ts.createItem(t, "Ryža", 0)
	base := "/api/items/" + itoa(item.ID)

	resp := ts.do(t, http.MethodPost, base+"/supply", ts.token, map[string]any{
		"amount":     5,
		"expiration": "2030-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, base+"/offtake", ts.token, map[string]any{
		"debits": []map[string]any{{"expiration": "2030-01-01", "amount": 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var move model.Move
	decode(t, resp, &move)
	require.Len(t, move.Lines, 1)
	require.Equal(t, -3, move.Lines[0].Amount)

	resp = ts.do(t, http.MethodGet, base+"/lots", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lots []model.Lot
	decode(t, resp, &lots)
	require.Len(t, lots, 1)
	require.Equal(t, 2, lots[0].Remaining)

	resp = ts.do(t, http.MethodGet, base+"/history", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []model.HistoryEntry
	decode(t, resp, &history)
	require.Len(t, history, 2)
	require.Equal(t, -3, history[0].Amount)
}

func TestOfftakeInsufficientStock(t *testing.T) {
	ts := setupTestServer(t, Config{})
	item := ts.createItem(t, "Cukor", 0)
	base := "/api/items/" + itoa(item.ID)

	resp := ts.do(t, http.MethodPost, base+"/supply", ts.token, map[string]any{
		"amount":     2,
		"expiration": "2030-06-30",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, base+"/offtake", ts.token, map[string]any{
		"debits":   []map[string]any{{"expiration": "2030-06-30", "amount": 10}},
		"disposal": true,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body errorBody
	decode(t, resp, &body)
	require.Equal(t, item.ID, body.ItemID)
	require.NotNil(t, body.Available)
	require.Equal(t, 2, *body.Available)
	require.NotNil(t, body.Requested)
	require.Equal(t, 10, *body.Requested)
}

func TestValidationErrorNamesField(t *testing.T) {
	ts := setupTestServer(t, Config{})
	item := ts.createItem(t, "Soľ", 0)

	resp := ts.do(t, http.MethodPost, "/api/items/"+itoa(item.ID)+"/supply", ts.token, map[string]any{
		"amount":     0,
		"expiration": "2030-01-01",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	decode(t, resp, &body)
	require.Equal(t, "amount", body.Field)

	resp = ts.do(t, http.MethodPost, "/api/items", ts.token, map[string]any{"name": "x", "bogus": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNonAdminPermissions(t *testing.T) {
	ts := setupTestServer(t, Config{})
	item := ts.createItem(t, "Olej", 0)

	resp := ts.do(t, http.MethodPost, "/api/accounts", ts.token, inventory.NewAccount{
		Name:     "Jana",
		Surname:  "Nováková",
		Login:    "jana",
		Password: "janapass1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := ts.login(t, "jana", "janapass1")

	resp = ts.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Oleje"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/items/"+itoa(item.ID), token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/accounts", token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/admin/rebuild-projection", token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Any account may move stock.
	resp = ts.do(t, http.MethodPost, "/api/items/"+itoa(item.ID)+"/supply", token, map[string]any{
		"amount":     1,
		"expiration": "2031-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCategoryDeleteRequiresReplacement(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.do(t, http.MethodPost, "/api/categories", ts.token, map[string]string{"name": "Cestoviny"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var pasta model.Category
	decode(t, resp, &pasta)

	resp = ts.do(t, http.MethodPost, "/api/categories", ts.token, map[string]string{"name": "Suché"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var dry model.Category
	decode(t, resp, &dry)

	resp = ts.do(t, http.MethodPost, "/api/items", ts.token, map[string]any{"name": "Špagety", "category_id": pasta.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/categories/"+itoa(pasta.ID), ts.token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/categories/"+itoa(pasta.ID)+"?replacement=x", ts.token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/categories/"+itoa(pasta.ID)+"?replacement="+itoa(dry.ID), ts.token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/items?category="+itoa(dry.ID), ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.Item
	decode(t, resp, &items)
	require.Len(t, items, 1)
}

func TestReportEndpoints(t *testing.T) {
	ts := setupTestServer(t, Config{})
	ts.createItem(t, "Hrach", 3)

	resp := ts.do(t, http.MethodGet, "/api/reports/low-stock", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var low []model.Item
	decode(t, resp, &low)
	require.Len(t, low, 1)

	resp = ts.do(t, http.MethodGet, "/api/reports/expiry?before=2099-01-01", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var expiry expiryResponse
	decode(t, resp, &expiry)
	require.Equal(t, model.NewDate(2099, 1, 1), expiry.Cutoff)
	require.Empty(t, expiry.Warnings)

	resp = ts.do(t, http.MethodGet, "/api/reports/expiry?before=tomorrow", ts.token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/reports/consumption", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/reports/summary", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/reports/consistency", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var drift []model.ProjectionDrift
	decode(t, resp, &drift)
	require.Empty(t, drift)

	resp = ts.do(t, http.MethodPost, "/api/admin/rebuild-projection", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rebuilt rebuildResponse
	decode(t, resp, &rebuilt)
	require.Zero(t, rebuilt.Corrected)
}

func TestHealthAndHeaders(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestLoginRateLimit(t *testing.T) {
	ts := setupTestServer(t, Config{LoginRateLimit: 2})

	// setupTestServer used the first attempt.
	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "admin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "admin", "password": testAdminPassword})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, Config{Metrics: metrics.New()})
	item := ts.createItem(t, "Fazuľa", 0)

	resp := ts.do(t, http.MethodPost, "/api/items/"+itoa(item.ID)+"/supply", ts.token, map[string]any{
		"amount":     4,
		"expiration": "2030-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "zaloga_supplied_units_total 4"))
	require.True(t, strings.Contains(string(body), "zaloga_http_requests_total"))
}

func TestMetricsDisabled(t *testing.T) {
	ts := setupTestServer(t, Config{})

	resp := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func (ts *testServer) createAccount(t *testing.T, login string, admin bool) model.Account {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/accounts", ts.token, inventory.NewAccount{
		Name:     login,
		Login:    login,
		Password: login + "-pass1",
		Admin:    admin,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var account model.Account
	decode(t, resp, &account)
	return account
}

func TestDemotedAdminLosesRights(t *testing.T) {
	ts := setupTestServer(t, Config{})
	item := ts.createItem(t, "Ocot", 0)
	boss := ts.createAccount(t, "boss", true)
	token := ts.login(t, "boss", "boss-pass1")

	resp := ts.do(t, http.MethodGet, "/api/accounts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodPatch, "/api/accounts/"+itoa(boss.ID), ts.token, map[string]any{"admin": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/items/"+itoa(item.ID), token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/accounts", token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Still a valid session for ordinary work.
	resp = ts.do(t, http.MethodGet, "/api/items/"+itoa(item.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeletedAccountTokenRejected(t *testing.T) {
	ts := setupTestServer(t, Config{})
	item := ts.createItem(t, "Med", 0)
	temp := ts.createAccount(t, "brigadnik", false)
	token := ts.login(t, "brigadnik", "brigadnik-pass1")

	resp := ts.do(t, http.MethodDelete, "/api/accounts/"+itoa(temp.ID), ts.token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/items/"+itoa(item.ID)+"/supply", token, map[string]any{
		"amount":     1,
		"expiration": "2030-01-01",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/items/"+itoa(item.ID)+"/history", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []model.HistoryEntry
	decode(t, resp, &history)
	require.Empty(t, history)
}
