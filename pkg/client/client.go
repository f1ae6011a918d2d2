// Package client is a Go client for the ledger HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// ClientConfig represents the configuration for the ledger API client.
type ClientConfig struct {
	APIURL      string
	AccessToken string
	Timeout     time.Duration // Default: 30 seconds
}

// Client is a ledger API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient creates a new ledger API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(config.APIURL, "/"),
		accessToken: config.AccessToken,
	}
}

// SetAccessToken sets the bearer token for API requests.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// Login signs in with password credentials and keeps the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var tokenResp TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &tokenResp)
	if err != nil {
		return nil, err
	}

	c.accessToken = tokenResp.Token
	return &tokenResp.User, nil
}

// ListLedgers lists the ledgers visible to the signed-in user.
func (c *Client) ListLedgers(ctx context.Context) ([]models.LedgerSummary, error) {
	var ledgersResp LedgersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/ledgers", nil, &ledgersResp); err != nil {
		return nil, err
	}
	return ledgersResp.Ledgers, nil
}

// GetLedger fetches a ledger with its balanced transactions.
func (c *Client) GetLedger(ctx context.Context, id models.LedgerID) (*models.LedgerView, error) {
	var view models.LedgerView
	if err := c.doJSON(ctx, http.MethodGet, "/ledgers/"+id.String(), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateTransaction adds one transaction.
func (c *Client) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	var txnResp TransactionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/transactions", req, &txnResp); err != nil {
		return nil, err
	}
	return &txnResp.Transaction, nil
}

// ImportCSV uploads a CSV document into a ledger and returns the number of
// imported transactions.
func (c *Client) ImportCSV(ctx context.Context, ledgerID models.LedgerID, filename string, csv io.Reader) (int, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("ledgerId", ledgerID.String()); err != nil {
		return 0, fmt.Errorf("failed to build form: %w", err)
	}
	fw, err := mw.CreateFormFile("csvFile", filename)
	if err != nil {
		return 0, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(fw, csv); err != nil {
		return 0, fmt.Errorf("failed to read csv: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("failed to build form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/transactions/import/file", mw.FormDataContentType(), &body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var importResp ImportResponse
	if err := json.NewDecoder(resp.Body).Decode(&importResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return importResp.Count, nil
}

// ExportCSV downloads a ledger's CSV export.
func (c *Client) ExportCSV(ctx context.Context, ledgerID models.LedgerID) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/transactions/ledger/"+ledgerID.String()+"/export/csv", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// doJSON sends in as a JSON body, when non-nil, and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do sends a request and returns the response for 2xx statuses. Any other
// status is returned as an *APIError.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.accessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, c.parseError(resp)
	}
	return resp, nil
}

// parseError parses an error response from the ledger API.
func (c *Client) parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr.ErrorResponse.Error = "failed to read error response"
		return apiErr
	}

	if err := json.Unmarshal(body, &apiErr.ErrorResponse); err != nil || apiErr.ErrorResponse.Error == "" {
		apiErr.ErrorResponse = ErrorResponse{Error: http.StatusText(resp.StatusCode), ErrorDescription: strings.TrimSpace(string(body))}
	}
	return apiErr
}
