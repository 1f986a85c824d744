package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements Client using HTTP JSON-RPC 2.0 eth_call reads.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

var _ Client = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new JSON-RPC chain read client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
// RPC-level errors (reverts included) are returned without retrying.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ethCall executes a read-only contract call against the latest block and
// returns the raw return data.
func (c *HTTPClient) ethCall(ctx context.Context, contract, data string) ([]byte, error) {
	params := []interface{}{
		map[string]interface{}{
			"to":   contract,
			"data": data,
		},
		"latest",
	}

	var result string
	if err := c.call(ctx, "eth_call", params, &result); err != nil {
		return nil, err
	}
	return decodeReturnData(result)
}

// OwnerOf queries ownerOf(tokenId) on a single-owner contract.
func (c *HTTPClient) OwnerOf(ctx context.Context, contract, tokenID string) (string, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return "", err
	}

	raw, err := c.ethCall(ctx, contract, encodeCall(selectorOwnerOf, encodeUint256(id)))
	if err != nil {
		return "", fmt.Errorf("ownerOf %s/%s: %w", contract, tokenID, err)
	}
	return decodeAddressWord(raw)
}

// BalanceOf queries balanceOf(account, tokenId) on a multi-edition contract.
func (c *HTTPClient) BalanceOf(ctx context.Context, owner, contract, tokenID string) (*big.Int, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	addrWord, err := encodeAddress(owner)
	if err != nil {
		return nil, err
	}

	raw, err := c.ethCall(ctx, contract, encodeCall(selectorBalanceOf, addrWord, encodeUint256(id)))
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s/%s: %w", contract, tokenID, err)
	}
	return decodeUint256Word(raw)
}

// TokenURI queries tokenURI(tokenId) on a single-owner contract.
func (c *HTTPClient) TokenURI(ctx context.Context, contract, tokenID string) (string, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return "", err
	}

	raw, err := c.ethCall(ctx, contract, encodeCall(selectorTokenURI, encodeUint256(id)))
	if err != nil {
		return "", fmt.Errorf("tokenURI %s/%s: %w", contract, tokenID, err)
	}
	return decodeStringReturn(raw)
}

// URI queries uri(tokenId) on a multi-edition contract.
func (c *HTTPClient) URI(ctx context.Context, contract, tokenID string) (string, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return "", err
	}

	raw, err := c.ethCall(ctx, contract, encodeCall(selectorURI, encodeUint256(id)))
	if err != nil {
		return "", fmt.Errorf("uri %s/%s: %w", contract, tokenID, err)
	}
	return decodeStringReturn(raw)
}
