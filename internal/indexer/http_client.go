package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
)

// DefaultTimeout bounds one indexer API request.
const DefaultTimeout = 10 * time.Second

// HTTPClient implements Client against an Etherscan-compatible HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithAPIKey sets the API key passed on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// NewHTTPClient creates an indexer API client.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the indexer API envelope. Status "1" carries results,
// status "0" with "No transactions found" is an empty log.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// apiTransfer is one transfer log entry as the API reports it.
type apiTransfer struct {
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenID"`
	TokenName       string `json:"tokenName"`
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
}

// TokenTransfers fetches the wallet's full transfer log, oldest first.
func (c *HTTPClient) TokenTransfers(ctx context.Context, wallet string) ([]*domain.ChainTransferEvent, error) {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "tokennfttx")
	q.Set("address", wallet)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "asc")
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer status %d: %s", resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	if envelope.Status != "1" {
		// The API signals an empty log through a status-0 envelope rather
		// than an empty result array.
		if envelope.Message == "No transactions found" {
			return nil, nil
		}
		return nil, fmt.Errorf("indexer error: %s", envelope.Message)
	}

	var raw []apiTransfer
	if err := json.Unmarshal(envelope.Result, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal transfers: %w", err)
	}

	events := make([]*domain.ChainTransferEvent, 0, len(raw))
	for _, t := range raw {
		ts, err := strconv.ParseInt(t.TimeStamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", t.TimeStamp, err)
		}
		events = append(events, &domain.ChainTransferEvent{
			FromAddress:     t.From,
			ToAddress:       t.To,
			ContractAddress: t.ContractAddress,
			TokenID:         t.TokenID,
			TokenName:       t.TokenName,
			TxHash:          t.Hash,
			Timestamp:       ts,
		})
	}
	return events, nil
}
