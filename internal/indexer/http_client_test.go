package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_TokenTransfers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("module") != "account" || q.Get("action") != "tokennfttx" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("address") != "0xwallet" {
			t.Errorf("address = %s", q.Get("address"))
		}
		if q.Get("sort") != "asc" {
			t.Errorf("sort = %s", q.Get("sort"))
		}

		resp := map[string]interface{}{
			"status":  "1",
			"message": "OK",
			"result": []map[string]string{
				{
					"from":            "0x0000000000000000000000000000000000000000",
					"to":              "0xwallet",
					"contractAddress": "0xcontract",
					"tokenID":         "1",
					"tokenName":       "Cool Cats",
					"hash":            "0xtx1",
					"timeStamp":       "1700000000",
				},
				{
					"from":            "0xwallet",
					"to":              "0xother",
					"contractAddress": "0xcontract",
					"tokenID":         "1",
					"tokenName":       "Cool Cats",
					"hash":            "0xtx2",
					"timeStamp":       "1700000100",
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	events, err := client.TokenTransfers(context.Background(), "0xwallet")
	if err != nil {
		t.Fatalf("TokenTransfers: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ToAddress != "0xwallet" || events[0].Timestamp != 1700000000 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].TxHash != "0xtx2" {
		t.Errorf("unexpected second event: %+v", events[1])
	}
}

func TestHTTPClient_TokenTransfers_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "0",
			"message": "No transactions found",
			"result":  []interface{}{},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	events, err := client.TokenTransfers(context.Background(), "0xwallet")
	if err != nil {
		t.Fatalf("TokenTransfers: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty log, got %d events", len(events))
	}
}

func TestHTTPClient_TokenTransfers_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "0",
			"message": "Max rate limit reached",
			"result":  nil,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	if _, err := client.TokenTransfers(context.Background(), "0xwallet"); err == nil {
		t.Fatal("expected error for rate-limited response")
	}
}

func TestHTTPClient_TokenTransfers_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	if _, err := client.TokenTransfers(context.Background(), "0xwallet"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
