package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/domain"
	"fintrack/internal/repository/migrations"
	"fintrack/internal/repository/sqlite"
	"fintrack/internal/service"
)

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T, configure ...func(*Options)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "api.db")
	require.NoError(t, migrations.Up(migrations.DriverSQLite, path))
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	txs := sqlite.NewTransactionRepository(db)
	provider := auth.NewProvider(users, "test-secret", time.Hour, auth.WithBcryptCost(bcrypt.MinCost))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := Options{
		Logger:      logger,
		CORSOrigins: []string{"https://app.example"},
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h := NewHandler(service.NewUserService(users, provider), service.NewTransactionService(txs), provider, opts)
	router := gin.New()
	h.RegisterRoutes(router)
	return &testServer{router: router}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// signup registers a user and returns a bearer token for it.
func (s *testServer) signup(t *testing.T, name string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users", RegisterRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "TestPass123!",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/token", LoginRequest{Username: name, Password: "TestPass123!"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok TokenResponse
	decode(t, rec, &tok)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func (s *testServer) addTransaction(t *testing.T, token, kind, amount, category, date string) TransactionResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/transactions", map[string]any{
		"date":             date,
		"amount":           json.Number(amount),
		"transaction_type": kind,
		"category":         category,
		"description":      "Test",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tx TransactionResponse
	decode(t, rec, &tx)
	return tx
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users", RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "TestPass123!",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var user UserResponse
	decode(t, rec, &user)
	assert.Equal(t, "alice", user.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodPost, "/api/users", RegisterRequest{
		Username: "alice2", Email: "alice@example.com", Password: "TestPass123!",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/users", RegisterRequest{
		Username: "bob", Email: "bob@example.com", Password: "weak",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorOf(t, rec), "at least 8 characters")

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusUnprocessableEntity, raw.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"TestPass123!"}}
		req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var tok TokenResponse
		decode(t, rec, &tok)
		assert.Equal(t, "bearer", tok.TokenType)
		assert.Equal(t, "alice", tok.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/token", LoginRequest{Username: "alice", Password: "Nope1234!"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("me", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/users/me", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var user UserResponse
		decode(t, rec, &user)
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/users/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/transactions", nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	tx := s.addTransaction(t, token, "expense", "100.50", "Food", "2024-01-15")
	assert.Equal(t, json.Number("-100.50"), tx.Amount)
	assert.Equal(t, "2024-01-15", tx.Date.String())

	path := "/api/transactions/" + jsonID(tx.ID)
	rec := s.do(t, http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, path, map[string]any{
		"date":             "2024-01-16",
		"amount":           150,
		"transaction_type": "income",
		"category":         "Salary",
		"description":      "Updated",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated TransactionResponse
	decode(t, rec, &updated)
	assert.Equal(t, json.Number("150.00"), updated.Amount)
	assert.Equal(t, "Salary", updated.Category)

	rec = s.do(t, http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, path, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/transactions/abc", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTransactionValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	cases := map[string]map[string]any{
		"zero amount":  {"date": "2024-01-15", "amount": 0, "transaction_type": "expense"},
		"bad kind":     {"date": "2024-01-15", "amount": 10, "transaction_type": "transfer"},
		"missing date": {"amount": 10, "transaction_type": "income"},
		"bad date":     {"date": "15/01/2024", "amount": 10, "transaction_type": "income"},
		"bad amount":   {"date": "2024-01-15", "amount": "lots", "transaction_type": "income"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/transactions", body, token)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		})
	}
}

func TestTransactionAmountPrecision(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	cases := []struct {
		kind, amount, wantErr string
	}{
		{"expense", "0.001", "amount has more than 2 decimal places"},
		{"income", "1.005", "amount has more than 2 decimal places"},
		{"expense", "1000000000000", "amount is too large"},
	}
	for _, tc := range cases {
		rec := s.do(t, http.MethodPost, "/api/transactions", map[string]any{
			"date":             "2024-01-15",
			"amount":           json.Number(tc.amount),
			"transaction_type": tc.kind,
		}, token)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, tc.amount)
		assert.Equal(t, tc.wantErr, errorOf(t, rec))
	}

	tx := s.addTransaction(t, token, "income", "1.01", "Gift", "2024-01-15")
	rec := s.do(t, http.MethodPut, "/api/transactions/"+jsonID(tx.ID), map[string]any{
		"date":             "2024-01-15",
		"amount":           json.Number("1.019"),
		"transaction_type": "income",
	}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/transactions/summary", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_income":1.01,"total_expenses":0.00,"net_balance":1.01}`, rec.Body.String())
}

func TestTransactionOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	tx := s.addTransaction(t, alice, "income", "500", "Salary", "2024-01-01")
	path := "/api/transactions/" + jsonID(tx.ID)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, path, nil, bob).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, path, nil, bob).Code)

	rec := s.do(t, http.MethodGet, "/api/transactions", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListQueries(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	s.addTransaction(t, token, "expense", "50", "Food", "2024-01-10")
	s.addTransaction(t, token, "expense", "100", "Transport", "2024-01-15")
	s.addTransaction(t, token, "expense", "150", "Food", "2024-01-20")
	s.addTransaction(t, token, "income", "1000", "Salary", "2024-02-01")

	list := func(path string) []TransactionResponse {
		t.Helper()
		rec := s.do(t, http.MethodGet, path, nil, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var txs []TransactionResponse
		decode(t, rec, &txs)
		return txs
	}

	assert.Len(t, list("/api/transactions"), 4)
	page := list("/api/transactions?skip=1&limit=2")
	require.Len(t, page, 2)
	assert.Equal(t, "Transport", page[0].Category)

	assert.Len(t, list("/api/transactions/by-category?category=Food"), 2)
	assert.Len(t, list("/api/transactions/by-date?start=2024-01-12&end=2024-01-31"), 2)
	assert.Len(t, list("/api/transactions/by-amount?min_amount=-175&max_amount=-75"), 2)
	assert.Len(t, list("/api/transactions?kind=income"), 1)
	assert.Len(t, list("/api/transactions?category=Food&start=2024-01-15"), 1)

	for _, path := range []string{
		"/api/transactions/by-amount?min_amount=1",
		"/api/transactions/by-date?start=2024-01-01",
		"/api/transactions/by-category",
		"/api/transactions?start=yesterday",
		"/api/transactions?limit=-1",
		"/api/transactions?kind=transfer",
	} {
		rec := s.do(t, http.MethodGet, path, nil, token)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
	}
}

func TestAggregates(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	s.addTransaction(t, token, "income", "1000", "Salary", "2024-01-01")
	s.addTransaction(t, token, "expense", "200", "Food", "2024-01-05")
	s.addTransaction(t, token, "expense", "300", "Rent", "2024-02-01")

	rec := s.do(t, http.MethodGet, "/api/transactions/summary", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_income":1000.00,"total_expenses":500.00,"net_balance":500.00}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/transactions/breakdown", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var totals []CategoryTotalResponse
	decode(t, rec, &totals)
	require.Len(t, totals, 2)
	assert.Equal(t, "Rent", totals[0].Category)
	assert.Equal(t, json.Number("300.00"), totals[0].Total)

	rec = s.do(t, http.MethodGet, "/api/transactions/breakdown?kind=transfer", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/transactions/monthly", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var months []MonthlyTotalResponse
	decode(t, rec, &months)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0].Month)
	assert.Equal(t, json.Number("800.00"), months[0].Net)

	rec = s.do(t, http.MethodGet, "/api/dashboard", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash DashboardResponse
	decode(t, rec, &dash)
	assert.Equal(t, json.Number("500.00"), dash.Summary.NetBalance)
	assert.Len(t, dash.IncomeByCategory, 1)
	assert.Len(t, dash.Monthly, 2)
	assert.True(t, dash.Health.Available)
	assert.Equal(t, domain.HealthExcellent, dash.Health.Tier)
	assert.Len(t, dash.Daily, 3)
	assert.Len(t, dash.SpendingPatterns, 2)
	require.Len(t, dash.Recent, 3)
	assert.Equal(t, "Rent", dash.Recent[0].Category)

	rec = s.do(t, http.MethodGet, "/api/transactions/health", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true,"expense_ratio":50.00,"tier":"excellent"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/transactions/daily", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var days []DailyTotalResponse
	decode(t, rec, &days)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-01-01", days[0].Date.String())
	assert.Equal(t, json.Number("1000.00"), days[0].Income)
	assert.Equal(t, json.Number("0.00"), days[0].Expenses)

	rec = s.do(t, http.MethodGet, "/api/transactions/spending-patterns", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"month":"2024-01","category":"Food","total":200.00,"count":1},
		{"month":"2024-02","category":"Rent","total":300.00,"count":1}
	]`, rec.Body.String())
}

func TestEmptySummary(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	rec := s.do(t, http.MethodGet, "/api/transactions/summary", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_income":0.00,"total_expenses":0.00,"net_balance":0.00}`, rec.Body.String())

	s.addTransaction(t, token, "expense", "40", "Food", "2024-01-05")
	rec = s.do(t, http.MethodGet, "/api/transactions/health", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":false}`, rec.Body.String())
}

func TestExportsDisabled(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		rec := s.do(t, method, "/api/exports", nil, token)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, method)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}
