// Package assistant provides a small Go client for the IntentChain REST API.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. It is intentionally short to avoid hanging network calls.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the IntentChain REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Message is a single turn of the conversation sent to the assistant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// VestingRecord mirrors the on-chain vesting leaf used by claim requests.
type VestingRecord struct {
	Beneficiary string `json:"beneficiary"`
	TotalAmount string `json:"totalAmount"`
}

// VestingClaim bundles a vesting record with its Merkle proof.
type VestingClaim struct {
	Data        VestingRecord `json:"data"`
	MerkleProof []string      `json:"merkleProof"`
}

// RequestContext carries caller chain context needed by some actions.
type RequestContext struct {
	Account string        `json:"account,omitempty"`
	Vesting *VestingClaim `json:"vesting,omitempty"`
}

// ChatRequest is the payload accepted by the chat endpoint.
type ChatRequest struct {
	Messages []Message       `json:"messages"`
	Context  *RequestContext `json:"context,omitempty"`
}

// TxPreview is an unsigned transaction description returned by the backend.
type TxPreview struct {
	ChainID int64  `json:"chainId"`
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
}

// Plan is the assistant's full answer to a chat request.
type Plan struct {
	ID             string      `json:"id"`
	ActionType     string      `json:"actionType"`
	Interpretation string      `json:"interpretation"`
	UserMessage    string      `json:"userMessage"`
	Warnings       []string    `json:"warnings"`
	Txs            []TxPreview `json:"txs"`
	Tx             *TxPreview  `json:"tx"`
	DocsURL        string      `json:"docsUrl,omitempty"`
	SupportEmail   string      `json:"supportEmail,omitempty"`
}

// PlanRecord is one entry of the plan issuance history.
type PlanRecord struct {
	PlanID         string `json:"plan_id"`
	ActionType     string `json:"action_type"`
	Interpretation string `json:"interpretation"`
	TxCount        int    `json:"tx_count"`
	CreatedAt      int64  `json:"created_at"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Code       string   `json:"error"`
	Message    string   `json:"message"`
	Issues     []string `json:"issues"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Issues) > 0 {
		return fmt.Sprintf("intentchain api error (%d): %s - %v", e.StatusCode, e.Code, e.Issues)
	}
	if e.Code != "" {
		return fmt.Sprintf("intentchain api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("intentchain api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the IntentChain API. When httpClient is
// nil, a default client with a sensible timeout is used.
func NewClient(rawURL string, httpClient *http.Client) *Client {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		panic(fmt.Sprintf("invalid base url: %v", err))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}
}

// Chat submits a conversation and returns the resulting plan.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (Plan, error) {
	var plan Plan
	if err := c.post(ctx, "/chat", req, &plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Plans fetches the most recent plan records. A non-positive limit lets the
// backend apply its default.
func (c *Client) Plans(ctx context.Context, limit int) ([]PlanRecord, error) {
	endpoint := "/plans"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var records []PlanRecord
	if err := c.get(ctx, endpoint, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Health reports whether the backend answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, parsed.Path), RawQuery: parsed.RawQuery}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		apiErr.StatusCode = resp.StatusCode
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &apiErr)
		}
		if apiErr.Message == "" && len(apiErr.Issues) == 0 {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
