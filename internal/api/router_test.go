package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/api"
	"github.com/Domi-X-in/financial-ledger-app/internal/auth"
	"github.com/Domi-X-in/financial-ledger-app/internal/events"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/metrics"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
	"github.com/Domi-X-in/financial-ledger-app/internal/store"
)

type testClient struct {
	t         *testing.T
	handler   http.Handler
	svc       *ledger.Service
	tokens    *auth.TokenManager
	uploadDir string
	users     map[string]*models.User
}

func setupTestServer(t *testing.T, googleURL string) *testClient {
	t.Helper()

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ledger.NewService(st, ledger.WithPublisher(&events.Recorder{}), ledger.WithLogger(logger))
	tokens := auth.NewTokenManager("test-secret", 0)
	uploadDir := filepath.Join(dir, "uploads")

	c := &testClient{
		t:         t,
		svc:       svc,
		tokens:    tokens,
		uploadDir: uploadDir,
		users:     make(map[string]*models.User),
		handler: api.NewRouter(api.RouterConfig{
			Service:   svc,
			Tokens:    tokens,
			Google:    auth.NewGoogleVerifier(googleURL),
			Metrics:   metrics.New(),
			UploadDir: uploadDir,
		}),
	}

	c.addUser("admin", "admin@example.com", models.GlobalRoleAdmin)
	c.addUser("ricky", "ricky@example.com", models.GlobalRoleUser)
	c.addUser("other", "other@example.com", models.GlobalRoleUser)
	return c
}

func (c *testClient) addUser(name, email string, role models.GlobalRole) {
	c.t.Helper()
	u, err := c.svc.CreateUser(context.Background(), access.System, &models.CreateUserRequest{
		Name: name, Email: email, Password: "password", Role: role,
	})
	if err != nil {
		c.t.Fatalf("Failed to create user %s: %v", email, err)
	}
	c.users[name] = u
}

func (c *testClient) token(name string) string {
	c.t.Helper()
	token, err := c.tokens.GenerateToken(c.users[name])
	if err != nil {
		c.t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

func (c *testClient) doRequest(method, path, as string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+c.token(as))
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func (c *testClient) createLedger(name, owner string) models.Ledger {
	c.t.Helper()
	rec := c.doRequest(http.MethodPost, "/ledgers", "admin", map[string]interface{}{
		"name":     name,
		"ownerId":  c.users[owner].ID,
		"currency": "USD",
	})
	expectStatus(c.t, rec, http.StatusCreated)

	var resp struct {
		Ledger models.Ledger `json:"ledger"`
	}
	decode(c.t, rec, &resp)
	return resp.Ledger
}

func (c *testClient) addTransaction(ledgerID models.LedgerID, date, description string, amount float64) {
	c.t.Helper()
	rec := c.doRequest(http.MethodPost, "/transactions", "admin", map[string]interface{}{
		"ledgerId":    ledgerID,
		"date":        date,
		"description": description,
		"amount":      amount,
	})
	expectStatus(c.t, rec, http.StatusCreated)
}

func (c *testClient) transactionCount(ledgerID models.LedgerID) int {
	c.t.Helper()
	rec := c.doRequest(http.MethodGet, "/transactions/ledger/"+string(ledgerID), "admin", nil)
	expectStatus(c.t, rec, http.StatusOK)

	var resp struct {
		Transactions []models.BalancedTransaction `json:"transactions"`
	}
	decode(c.t, rec, &resp)
	return len(resp.Transactions)
}

func TestHealthAndMetrics(t *testing.T) {
	c := setupTestServer(t, "")

	rec := c.doRequest(http.MethodGet, "/health", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "OK" {
		t.Errorf("Expected body OK, got %q", rec.Body.String())
	}

	rec = c.doRequest(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("Expected http_requests_total in metrics output")
	}
}

func TestAuthenticationRequired(t *testing.T) {
	c := setupTestServer(t, "")

	rec := c.doRequest(http.MethodGet, "/ledgers", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/ledgers", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusUnauthorized)

	var errResp api.ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Error != "unauthorized" {
		t.Errorf("Expected error unauthorized, got %s", errResp.Error)
	}
}

func TestLedgerScenario(t *testing.T) {
	c := setupTestServer(t, "")

	l := c.createLedger("Ricky's Savings", "ricky")
	c.addTransaction(l.ID, "2025-01-01", "Salary", 1000)
	c.addTransaction(l.ID, "2025-01-02", "Rent", -500)
	c.addTransaction(l.ID, "2025-01-03", "Bonus", 2500)

	rec := c.doRequest(http.MethodGet, "/ledgers/"+string(l.ID), "ricky", nil)
	expectStatus(t, rec, http.StatusOK)

	var view models.LedgerView
	decode(t, rec, &view)
	if len(view.Transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(view.Transactions))
	}
	wantBalances := []string{"1000", "500", "3000"}
	for i, want := range wantBalances {
		if !view.Transactions[i].Balance.Equal(decimal.RequireFromString(want)) {
			t.Errorf("Transaction %d: expected balance %s, got %s", i, want, view.Transactions[i].Balance)
		}
	}
	if view.BalanceDisplay != "$3,000.00" {
		t.Errorf("Expected balance display $3,000.00, got %s", view.BalanceDisplay)
	}

	// A user without any role on the ledger is refused.
	rec = c.doRequest(http.MethodGet, "/ledgers/"+string(l.ID), "other", nil)
	expectStatus(t, rec, http.StatusForbidden)
	var errResp api.ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Error != "access_denied" {
		t.Errorf("Expected error access_denied, got %s", errResp.Error)
	}

	// Listing only shows ledgers the caller belongs to.
	rec = c.doRequest(http.MethodGet, "/ledgers", "other", nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Ledgers []models.LedgerSummary `json:"ledgers"`
	}
	decode(t, rec, &list)
	if len(list.Ledgers) != 0 {
		t.Errorf("Expected no ledgers for other, got %d", len(list.Ledgers))
	}

	rec = c.doRequest(http.MethodGet, "/ledgers/does-not-exist", "admin", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestMutationsRequirePlatformAdmin(t *testing.T) {
	c := setupTestServer(t, "")
	l := c.createLedger("Shared", "ricky")

	rec := c.doRequest(http.MethodPost, "/transactions", "ricky", map[string]interface{}{
		"ledgerId":    l.ID,
		"date":        "2025-01-01",
		"description": "Owner write",
		"amount":      10,
	})
	expectStatus(t, rec, http.StatusForbidden)

	rec = c.doRequest(http.MethodDelete, "/ledgers/"+string(l.ID), "ricky", nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = c.doRequest(http.MethodGet, "/users", "ricky", nil)
	expectStatus(t, rec, http.StatusForbidden)

	// The ledger owner holds the admin ledger role and may share it.
	rec = c.doRequest(http.MethodPut, "/ledgers/"+string(l.ID)+"/permissions", "ricky", map[string]interface{}{
		"permissions": []map[string]interface{}{
			{"user": c.users["ricky"].ID, "role": "admin"},
			{"user": c.users["other"].ID, "role": "viewer"},
		},
	})
	expectStatus(t, rec, http.StatusOK)

	rec = c.doRequest(http.MethodGet, "/transactions/ledger/"+string(l.ID), "other", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = c.doRequest(http.MethodPut, "/ledgers/"+string(l.ID)+"/permissions", "other", map[string]interface{}{
		"permissions": []map[string]interface{}{},
	})
	expectStatus(t, rec, http.StatusForbidden)
}

func TestTokenUsesStoredRole(t *testing.T) {
	c := setupTestServer(t, "")
	c.addUser("boss", "boss@example.com", models.GlobalRoleAdmin)
	l := c.createLedger("Shared", "ricky")
	bossToken := c.token("boss")

	withToken := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+bossToken)
		rec := httptest.NewRecorder()
		c.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := withToken(http.MethodGet, "/users")
	expectStatus(t, rec, http.StatusOK)

	rec = c.doRequest(http.MethodPut, "/users/"+string(c.users["boss"].ID), "admin", map[string]string{"role": "user"})
	expectStatus(t, rec, http.StatusOK)

	rec = withToken(http.MethodDelete, "/ledgers/"+string(l.ID))
	expectStatus(t, rec, http.StatusForbidden)
	rec = withToken(http.MethodGet, "/users")
	expectStatus(t, rec, http.StatusForbidden)

	rec = c.doRequest(http.MethodDelete, "/users/"+string(c.users["boss"].ID), "admin", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = withToken(http.MethodGet, "/ledgers")
	expectStatus(t, rec, http.StatusUnauthorized)
	var errResp api.ErrorResponse
	decode(t, rec, &errResp)
	if errResp.ErrorDescription != "User not found" {
		t.Errorf("Expected User not found, got %q", errResp.ErrorDescription)
	}

	rec = withToken(http.MethodGet, "/auth/current")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = c.doRequest(http.MethodGet, "/ledgers/"+string(l.ID), "admin", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestImportCSVRejectsWholeBatch(t *testing.T) {
	c := setupTestServer(t, "")
	l := c.createLedger("Import", "ricky")

	rec := c.doRequest(http.MethodPost, "/transactions/import/csv", "admin", map[string]interface{}{
		"ledgerId": l.ID,
		"transactions": []map[string]interface{}{
			{"date": "2025-01-01", "description": "Ok", "amount": "10"},
			{"date": "2025-13-45", "description": "Bad date", "amount": "10"},
		},
	})
	expectStatus(t, rec, http.StatusBadRequest)

	var errResp api.ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Error != "validation_error" || errResp.ErrorDescription != "Validation errors" {
		t.Errorf("Unexpected error response: %+v", errResp)
	}
	if len(errResp.Errors) != 1 || !strings.Contains(errResp.Errors[0], "Row 2") {
		t.Errorf("Expected one error naming row 2, got %v", errResp.Errors)
	}
	if n := c.transactionCount(l.ID); n != 0 {
		t.Errorf("Expected no stored transactions, got %d", n)
	}

	rec = c.doRequest(http.MethodPost, "/transactions/import/csv", "admin", map[string]interface{}{
		"ledgerId": l.ID,
		"transactions": []map[string]interface{}{
			{"date": "2025-01-01", "description": "Ok", "amount": 10},
			{"date": "2025-01-02", "description": "Also ok", "amount": "-2.50"},
		},
	})
	expectStatus(t, rec, http.StatusCreated)

	var okResp struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	decode(t, rec, &okResp)
	if okResp.Count != 2 || okResp.Message != "Successfully imported 2 transactions" {
		t.Errorf("Unexpected import response: %+v", okResp)
	}
}

func TestImportFileAndExport(t *testing.T) {
	c := setupTestServer(t, "")
	l := c.createLedger("Ricky's Savings", "ricky")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("ledgerId", string(l.ID)); err != nil {
		t.Fatalf("Failed to write field: %v", err)
	}
	fw, err := mw.CreateFormFile("csvFile", "upload.csv")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	_, _ = io.WriteString(fw, "date,description,amount\n2025-01-01,Salary,1000\n2025-01-02,\"Rent, flat\",-500\n")
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/transactions/import/file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token("admin"))
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated)

	entries, err := os.ReadDir(c.uploadDir)
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected staged uploads to be removed, found %d files", len(entries))
	}

	rec = c.doRequest(http.MethodGet, "/transactions/ledger/"+string(l.ID)+"/export/csv", "ricky", nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ricky_s_savings_transactions.csv") {
		t.Errorf("Unexpected Content-Disposition: %s", cd)
	}
	if !strings.Contains(rec.Body.String(), `"Rent, flat"`) {
		t.Errorf("Expected quoted description in export, got %q", rec.Body.String())
	}

	rec = c.doRequest(http.MethodGet, "/transactions/template/csv", "ricky", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Body.String(), "date,description,amount") {
		t.Errorf("Unexpected template: %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "transaction_template.csv") {
		t.Errorf("Unexpected Content-Disposition: %s", cd)
	}
}

func TestCreateTransactionRejectsOutOfRangeAmount(t *testing.T) {
	c := setupTestServer(t, "")
	l := c.createLedger("Ricky", "ricky")

	for _, amount := range []json.Number{"1e400", "1e20000000"} {
		rec := c.doRequest(http.MethodPost, "/transactions", "admin", map[string]interface{}{
			"ledgerId":    l.ID,
			"date":        "2025-01-01",
			"description": "Huge",
			"amount":      amount,
		})
		expectStatus(t, rec, http.StatusBadRequest)

		var errResp api.ErrorResponse
		decode(t, rec, &errResp)
		if len(errResp.Errors) != 1 || errResp.Errors[0] != "Amount is out of range" {
			t.Errorf("Unexpected errors for %s: %v", amount, errResp.Errors)
		}
	}

	rec := c.doRequest(http.MethodPost, "/transactions/import/csv", "admin", map[string]interface{}{
		"ledgerId": l.ID,
		"transactions": []map[string]string{
			{"date": "2025-01-01", "description": "Fine", "amount": "10"},
			{"date": "2025-01-02", "description": "Huge", "amount": "1e20000000"},
		},
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(rec.Body.String(), "Row 2: Amount is out of range") {
		t.Errorf("Expected row error, got %s", rec.Body.String())
	}
	if n := c.transactionCount(l.ID); n != 0 {
		t.Errorf("Expected no transactions, got %d", n)
	}
}

func TestImportFileRequiresPlatformAdmin(t *testing.T) {
	c := setupTestServer(t, "")
	l := c.createLedger("Ricky", "ricky")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("ledgerId", string(l.ID)); err != nil {
		t.Fatalf("Failed to write field: %v", err)
	}
	fw, err := mw.CreateFormFile("csvFile", "upload.csv")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	_, _ = io.WriteString(fw, "date,description,amount\n2025-01-01,Salary,1000\n")
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/transactions/import/file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token("ricky"))
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusForbidden)

	entries, err := os.ReadDir(c.uploadDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected nothing staged, found %d files", len(entries))
	}
	if n := c.transactionCount(l.ID); n != 0 {
		t.Errorf("Expected no transactions, got %d", n)
	}
}

func TestLoginAndCurrent(t *testing.T) {
	c := setupTestServer(t, "")

	rec := c.doRequest(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ricky@example.com",
		"password": "wrong",
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = c.doRequest(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "Ricky@Example.com",
		"password": "password",
	})
	expectStatus(t, rec, http.StatusOK)

	var tokenResp api.TokenResponse
	decode(t, rec, &tokenResp)
	if tokenResp.Token == "" || tokenResp.User.ID != c.users["ricky"].ID {
		t.Fatalf("Unexpected token response: %+v", tokenResp)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("Response leaks password material: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/current", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResp.Token)
	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	var current struct {
		User models.User `json:"user"`
	}
	decode(t, rec, &current)
	if current.User.Email != "ricky@example.com" {
		t.Errorf("Expected ricky@example.com, got %s", current.User.Email)
	}
}

func TestGoogleLogin(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"g-1","email":"new@example.com","email_verified":true,"name":"New User"}`))
	}))
	t.Cleanup(userinfo.Close)

	c := setupTestServer(t, userinfo.URL)

	rec := c.doRequest(http.MethodPost, "/auth/google", "", map[string]string{"token": "bad-token"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = c.doRequest(http.MethodPost, "/auth/google", "", map[string]string{"token": "good-token"})
	expectStatus(t, rec, http.StatusOK)

	var tokenResp api.TokenResponse
	decode(t, rec, &tokenResp)
	if tokenResp.User.Email != "new@example.com" || tokenResp.User.Role != models.GlobalRoleUser {
		t.Errorf("Unexpected user: %+v", tokenResp.User)
	}
}

func TestUsersAndMessages(t *testing.T) {
	c := setupTestServer(t, "")

	rec := c.doRequest(http.MethodPost, "/users", "admin", map[string]string{
		"email": "invitee@example.com",
		"role":  "user",
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = c.doRequest(http.MethodPost, "/users", "admin", map[string]string{
		"email": "invitee@example.com",
		"role":  "user",
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = c.doRequest(http.MethodGet, "/users", "admin", nil)
	expectStatus(t, rec, http.StatusOK)
	var users struct {
		Users []models.User `json:"users"`
	}
	decode(t, rec, &users)
	if len(users.Users) != 4 {
		t.Errorf("Expected 4 users, got %d", len(users.Users))
	}

	rec = c.doRequest(http.MethodPost, "/messages", "ricky", map[string]string{"content": ""})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = c.doRequest(http.MethodPost, "/messages", "ricky", map[string]string{"content": "Please share the family ledger"})
	expectStatus(t, rec, http.StatusCreated)

	rec = c.doRequest(http.MethodGet, "/messages", "ricky", nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = c.doRequest(http.MethodGet, "/messages", "admin", nil)
	expectStatus(t, rec, http.StatusOK)
	var msgs struct {
		Messages []models.MessageView `json:"messages"`
	}
	decode(t, rec, &msgs)
	if len(msgs.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs.Messages))
	}
	if msgs.Messages[0].SenderRef == nil || msgs.Messages[0].SenderRef.Email != "ricky@example.com" {
		t.Errorf("Expected sender to be populated, got %+v", msgs.Messages[0].SenderRef)
	}

	rec = c.doRequest(http.MethodPut, "/messages/"+string(msgs.Messages[0].ID)+"/read", "admin", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = c.doRequest(http.MethodDelete, "/messages/"+string(msgs.Messages[0].ID), "admin", nil)
	expectStatus(t, rec, http.StatusOK)
}
