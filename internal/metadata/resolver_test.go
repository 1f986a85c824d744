package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/chain/stub"
	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage/memory"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeFetcher serves fixed bodies per URI and records requested URIs.
type fakeFetcher struct {
	bodies map[string][]byte
	err    error
	seen   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	f.seen = append(f.seen, uri)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[uri]
	if !ok {
		return nil, errors.New("no body configured")
	}
	return body, nil
}

func newResolver(t *testing.T, client *stub.Client, fetcher *fakeFetcher) (*Resolver, *memory.TokenMetadataStore) {
	t.Helper()
	store := memory.NewTokenMetadataStore()
	r := NewResolver(store, client, fetcher, testLogger())
	return r, store
}

func TestResolve_FetchesAndPersists(t *testing.T) {
	client := stub.NewClient()
	client.TokenURIs["0xc1-1"] = "https://meta.example/1.json"
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://meta.example/1.json": []byte(`{
			"name": "Cool Cat #1",
			"description": "A cool cat.",
			"image": "ipfs://QmImg",
			"attributes": [{"trait_type": "fur", "value": "blue"}],
			"external_url": "https://coolcats.example"
		}`),
	}}
	r, store := newResolver(t, client, fetcher)

	meta, err := r.Resolve(context.Background(), "0xc1", "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != "Cool Cat #1" || meta.Description != "A cool cat." {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.ImageURL != "https://ipfs.io/ipfs/QmImg" {
		t.Errorf("ipfs image not normalized to a gateway URL: %q", meta.ImageURL)
	}
	if len(meta.Attributes) != 1 || meta.Attributes[0].TraitType != "fur" {
		t.Errorf("unexpected attributes: %+v", meta.Attributes)
	}
	if meta.Extra["external_url"] != "https://coolcats.example" {
		t.Errorf("unrecognized field not banked into Extra: %+v", meta.Extra)
	}

	// Written back to the store.
	stored, err := store.Get(context.Background(), "0xc1", "1")
	if err != nil {
		t.Fatalf("stored metadata missing: %v", err)
	}
	if stored.Name != "Cool Cat #1" {
		t.Errorf("stored name = %s", stored.Name)
	}
}

func TestResolve_FreshStoreRowSkipsChain(t *testing.T) {
	client := stub.NewClient()
	fetcher := &fakeFetcher{}
	r, store := newResolver(t, client, fetcher)

	store.Upsert(context.Background(), &domain.TokenMetadata{
		ContractAddress: "0xc1",
		TokenID:         "1",
		Name:            "cached",
		Attributes:      []domain.TokenAttribute{},
		LastUpdated:     time.Now().UnixMilli(),
	})

	meta, err := r.Resolve(context.Background(), "0xc1", "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != "cached" {
		t.Errorf("expected stored row, got %+v", meta)
	}
	if len(fetcher.seen) != 0 {
		t.Errorf("fresh row still triggered a fetch: %v", fetcher.seen)
	}
}

func TestResolve_StaleRowReResolved(t *testing.T) {
	client := stub.NewClient()
	client.TokenURIs["0xc1-1"] = "https://meta.example/1.json"
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://meta.example/1.json": []byte(`{"name": "refreshed"}`),
	}}
	r, store := newResolver(t, client, fetcher)

	store.Upsert(context.Background(), &domain.TokenMetadata{
		ContractAddress: "0xc1",
		TokenID:         "1",
		Name:            "stale",
		Attributes:      []domain.TokenAttribute{},
		LastUpdated:     time.Now().Add(-25 * time.Hour).UnixMilli(),
	})

	meta, err := r.Resolve(context.Background(), "0xc1", "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != "refreshed" {
		t.Errorf("stale row not re-resolved: %+v", meta)
	}
}

func TestResolve_MultiEditionURITemplate(t *testing.T) {
	client := stub.NewClient()
	client.URIs["0xc1-7"] = "https://meta.example/{id}.json"
	wantURI := "https://meta.example/0000000000000000000000000000000000000000000000000000000000000007.json"
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		wantURI: []byte(`{"name": "Edition 7"}`),
	}}
	r, _ := newResolver(t, client, fetcher)

	meta, err := r.Resolve(context.Background(), "0xc1", "7")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != "Edition 7" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if len(fetcher.seen) != 1 || fetcher.seen[0] != wantURI {
		t.Errorf("template not expanded: %v", fetcher.seen)
	}
}

func TestResolve_MissingFieldsDefaulted(t *testing.T) {
	client := stub.NewClient()
	client.TokenURIs["0xc1-1"] = "https://meta.example/1.json"
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://meta.example/1.json": []byte(`{"image_url": "https://img.example/1.png"}`),
	}}
	r, _ := newResolver(t, client, fetcher)

	meta, _ := r.Resolve(context.Background(), "0xc1", "1")
	if meta.Name != DefaultName {
		t.Errorf("name = %q, want %q", meta.Name, DefaultName)
	}
	if meta.Description != DefaultDescription {
		t.Errorf("description = %q, want %q", meta.Description, DefaultDescription)
	}
	if meta.ImageURL != "https://img.example/1.png" {
		t.Errorf("image_url spelling not honored: %+v", meta)
	}
	if meta.Attributes == nil || len(meta.Attributes) != 0 {
		t.Errorf("attributes should default to empty slice: %+v", meta.Attributes)
	}
}

func TestResolve_FetchFailureYieldsSentinel(t *testing.T) {
	client := stub.NewClient()
	client.TokenURIs["0xc1-1"] = "https://meta.example/1.json"
	fetcher := &fakeFetcher{err: errors.New("all gateways failed")}
	r, store := newResolver(t, client, fetcher)

	meta, err := r.Resolve(context.Background(), "0xc1", "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != UnavailableName || meta.Description != UnavailableDescription {
		t.Errorf("expected sentinel document, got %+v", meta)
	}

	// The sentinel is persisted so repeated failures stay cheap.
	stored, err := store.Get(context.Background(), "0xc1", "1")
	if err != nil || stored.Name != UnavailableName {
		t.Errorf("sentinel not persisted: %v, %+v", err, stored)
	}
}

func TestResolve_UnparseablePayloadYieldsSentinel(t *testing.T) {
	client := stub.NewClient()
	client.TokenURIs["0xc1-1"] = "https://meta.example/1.json"
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://meta.example/1.json": []byte("not json at all"),
	}}
	r, _ := newResolver(t, client, fetcher)

	meta, err := r.Resolve(context.Background(), "0xc1", "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != UnavailableName {
		t.Errorf("expected sentinel document, got %+v", meta)
	}
}

func TestResolve_NoURIFallsBackToStaleRow(t *testing.T) {
	client := stub.NewClient() // no URIs configured, both queries error
	fetcher := &fakeFetcher{}
	r, store := newResolver(t, client, fetcher)

	store.Upsert(context.Background(), &domain.TokenMetadata{
		ContractAddress: "0xc1",
		TokenID:         "1",
		Name:            "ancient but real",
		Attributes:      []domain.TokenAttribute{},
		LastUpdated:     time.Now().Add(-72 * time.Hour).UnixMilli(),
	})

	meta, err := r.Resolve(context.Background(), "0xc1", "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != "ancient but real" {
		t.Errorf("stale row should beat the placeholder: %+v", meta)
	}
}

func TestResolve_NoURINoStoreSynthesizes(t *testing.T) {
	client := stub.NewClient()
	fetcher := &fakeFetcher{}
	r, _ := newResolver(t, client, fetcher)

	meta, err := r.Resolve(context.Background(), "0xc1", "42")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta.Name != "NFT 42" {
		t.Errorf("name = %q, want synthesized placeholder", meta.Name)
	}
	if meta.Description != UnavailableDescription {
		t.Errorf("description = %q, want %q", meta.Description, UnavailableDescription)
	}
}

func TestResolveBatch_PerItemIsolation(t *testing.T) {
	client := stub.NewClient()
	client.TokenURIs["0xc1-1"] = "https://meta.example/1.json"
	// Token 2 has no URI anywhere and must synthesize, not poison the batch.
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://meta.example/1.json": []byte(`{"name": "One"}`),
	}}
	r, _ := newResolver(t, client, fetcher)

	refs := []domain.TokenRef{
		{ContractAddress: "0xc1", TokenID: "1"},
		{ContractAddress: "0xc1", TokenID: "2"},
	}

	results, err := r.ResolveBatch(context.Background(), refs, 4)
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "One" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Name != "NFT 2" || results[1].Description != UnavailableDescription {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestExpandIDTemplate(t *testing.T) {
	cases := []struct {
		tmpl, tokenID, want string
	}{
		{"https://x/{id}.json", "7", "https://x/0000000000000000000000000000000000000000000000000000000000000007.json"},
		{"https://x/{id}.json", "0xff", "https://x/00000000000000000000000000000000000000000000000000000000000000ff.json"},
		{"https://x/7.json", "7", "https://x/7.json"},
	}
	for _, c := range cases {
		if got := ExpandIDTemplate(c.tmpl, c.tokenID); got != c.want {
			t.Errorf("ExpandIDTemplate(%q, %q) = %q, want %q", c.tmpl, c.tokenID, got, c.want)
		}
	}
}
