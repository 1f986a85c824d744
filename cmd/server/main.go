// Package main provides the holdings and transfer API server:
// - Holdings: transfer-log replay with on-chain verification and metadata
// - Transfers: lifecycle records plus merged local/chain history
// - Cache: Redis-backed page caches with feed-driven invalidation
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/cache"
	"github.com/redengineer-ownplay/TheMarketplace/internal/chain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/gateway"
	"github.com/redengineer-ownplay/TheMarketplace/internal/holdings"
	"github.com/redengineer-ownplay/TheMarketplace/internal/indexer"
	"github.com/redengineer-ownplay/TheMarketplace/internal/metadata"
	"github.com/redengineer-ownplay/TheMarketplace/internal/observability"
	"github.com/redengineer-ownplay/TheMarketplace/internal/ownership"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
	chstore "github.com/redengineer-ownplay/TheMarketplace/internal/storage/clickhouse"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage/memory"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage/migrations"
	pgstore "github.com/redengineer-ownplay/TheMarketplace/internal/storage/postgres"
	"github.com/redengineer-ownplay/TheMarketplace/internal/stream"
	"github.com/redengineer-ownplay/TheMarketplace/internal/transfer"
)

// Server holds all components of the API service.
type Server struct {
	holdings    *holdings.Service
	verifier    *ownership.Verifier
	coordinator *transfer.Coordinator
	history     *transfer.HistoryService
	logger      *logrus.Logger
}

// allStores holds all storage implementations.
type allStores struct {
	heldTokenStore storage.HeldTokenStore
	metadataStore  storage.TokenMetadataStore
	transferStore  storage.TransferStore
	eventArchive   storage.TransferEventArchive
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("CHAIN_RPC_ENDPOINT"), "Chain JSON-RPC HTTP endpoint")
	indexerURL := flag.String("indexer-url", os.Getenv("INDEXER_URL"), "Transfer-log indexer API base URL")
	indexerAPIKey := flag.String("indexer-api-key", os.Getenv("INDEXER_API_KEY"), "Indexer API key")
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("TRANSFER_FEED_WS"), "Live transfer feed WebSocket endpoint (optional)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for page caches (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	// Setup logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	// Validate required flags
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *indexerURL == "" {
		logger.Fatal("--indexer-url is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.WithError(err).Fatal("failed to create stores")
	}
	defer cleanup()

	// Page caches and invalidator (optional; the services degrade to
	// uncached reads without Redis)
	var holdingsPages holdings.PageCache
	var historyPages transfer.HistoryCache
	var invalidator *cache.Invalidator
	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		defer client.Close()

		holdingsCache := cache.New(cache.Options[domain.Page[*domain.HeldToken]]{
			Client:  client,
			Encoder: cache.MsgpackEncoder[domain.Page[*domain.HeldToken]](),
			Decoder: cache.MsgpackDecoder[domain.Page[*domain.HeldToken]](),
			Prefix:  cache.PrefixHoldings,
		})
		historyCache := cache.New(cache.Options[domain.Page[transfer.HistoryEntry]]{
			Client:  client,
			Encoder: cache.MsgpackEncoder[domain.Page[transfer.HistoryEntry]](),
			Decoder: cache.MsgpackDecoder[domain.Page[transfer.HistoryEntry]](),
			Prefix:  cache.PrefixTransferHistory,
		})
		holdingsPages = holdingsCache
		historyPages = historyCache
		invalidator = cache.NewInvalidator(logger, holdingsCache, historyCache)
	}

	// Chain and indexer clients
	chainClient := chain.NewHTTPClient(*rpcEndpoint)
	var indexerOpts []indexer.ClientOption
	if *indexerAPIKey != "" {
		indexerOpts = append(indexerOpts, indexer.WithAPIKey(*indexerAPIKey))
	}
	indexerClient := indexer.NewHTTPClient(*indexerURL, indexerOpts...)

	// Domain services
	verifier := ownership.NewVerifier(chainClient, logger)
	fetcher := gateway.NewFetcher(logger)
	resolver := metadata.NewResolver(stores.metadataStore, chainClient, fetcher, logger)
	reconciler := holdings.NewReconciler(indexerClient, verifier, resolver, stores.heldTokenStore, stores.eventArchive, logger)

	server := &Server{
		holdings:    holdings.NewService(reconciler, stores.heldTokenStore, holdingsPages, logger),
		verifier:    verifier,
		coordinator: transfer.NewCoordinator(stores.transferStore, coordinatorInvalidator(invalidator), logger),
		history:     transfer.NewHistoryService(stores.transferStore, indexerClient, historyPages, logger),
		logger:      logger,
	}

	// Live feed subscription (optional)
	if *feedEndpoint != "" && invalidator != nil {
		sub, err := stream.NewSubscriber(ctx, *feedEndpoint, invalidator, logger, nil)
		if err != nil {
			logger.WithError(err).Fatal("failed to subscribe to transfer feed")
		}
		defer sub.Close()
		logger.WithField("endpoint", *feedEndpoint).Info("subscribed to transfer feed")
	}

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("graceful shutdown failed, forcing close")
			httpServer.Close()
		}
	}()

	logger.WithField("addr", *addr).Info("starting HTTP server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("HTTP server error")
	}

	logger.Info("shutdown complete")
}

// coordinatorInvalidator adapts a possibly-nil *cache.Invalidator to the
// coordinator's interface without handing it a non-nil interface holding a
// nil pointer.
func coordinatorInvalidator(inv *cache.Invalidator) transfer.Invalidator {
	if inv == nil {
		return nil
	}
	return inv
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			heldTokenStore: memory.NewHeldTokenStore(),
			metadataStore:  memory.NewTokenMetadataStore(),
			transferStore:  memory.NewTransferStore(),
			eventArchive:   memory.NewTransferEventArchive(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	// ClickHouse (migrations create the database and return the connection)
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		heldTokenStore: pgstore.NewHeldTokenStore(pool),
		metadataStore:  pgstore.NewTokenMetadataStore(pool),
		transferStore:  pgstore.NewTransferStore(pool),
		eventArchive:   chstore.NewTransferEventArchive(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /wallets/{address}/nfts", s.handleGetHoldings)
	mux.HandleFunc("GET /wallets/{address}/transfers", s.handleGetHistory)
	mux.HandleFunc("GET /ownership", s.handleVerifyOwnership)
	mux.HandleFunc("POST /transfers", s.handleInitiateTransfer)
	mux.HandleFunc("GET /transfers/{id}", s.handleGetTransfer)
	mux.HandleFunc("PATCH /transfers/{id}", s.handleUpdateTransfer)

	return mux
}

// handleGetHoldings serves one page of a wallet's derived holdings.
func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	page, err := s.holdings.GetHoldings(r.Context(), r.PathValue("address"), limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleGetHistory serves one page of a wallet's merged transfer history.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	page, err := s.history.GetTransferHistory(r.Context(), r.PathValue("address"), limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ownershipResponse is the JSON response for GET /ownership.
type ownershipResponse struct {
	Owned     bool             `json:"owned"`
	TokenType domain.TokenType `json:"tokenType"`
}

// handleVerifyOwnership checks on-chain whether a wallet holds a token.
func (s *Server) handleVerifyOwnership(w http.ResponseWriter, r *http.Request) {
	wallet, err := domain.NormalizeAddress(r.URL.Query().Get("wallet"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	contract, err := domain.NormalizeAddress(r.URL.Query().Get("contract"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	tokenID := r.URL.Query().Get("tokenId")
	if tokenID == "" {
		s.writeError(w, transfer.ErrEmptyTokenID)
		return
	}

	owned, tokenType := s.verifier.Verify(r.Context(), wallet, contract, tokenID)
	observability.RecordOwnershipCheck(string(tokenType), strconv.FormatBool(owned))
	writeJSON(w, http.StatusOK, ownershipResponse{Owned: owned, TokenType: tokenType})
}

// initiateRequest is the JSON body for POST /transfers.
type initiateRequest struct {
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
}

// handleInitiateTransfer records a new pending transfer.
func (s *Server) handleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	record, err := s.coordinator.Initiate(r.Context(), req.From, req.To, req.ContractAddress, req.TokenID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	observability.RecordTransferTransition(string(record.Status))
	writeJSON(w, http.StatusCreated, record)
}

// handleGetTransfer returns one transfer record by id.
func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	record, err := s.coordinator.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// updateRequest is the JSON body for PATCH /transfers/{id}.
type updateRequest struct {
	Status domain.TransferStatus `json:"status"`
	TxHash *string               `json:"txHash,omitempty"`
	Error  *string               `json:"error,omitempty"`
}

// handleUpdateTransfer moves a transfer to a new lifecycle status.
func (s *Server) handleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	record, err := s.coordinator.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.TxHash, req.Error)
	if err != nil {
		s.writeError(w, err)
		return
	}

	observability.RecordTransferTransition(string(record.Status))
	writeJSON(w, http.StatusOK, record)
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, transfer.ErrSelfTransfer),
		errors.Is(err, transfer.ErrEmptyTokenID),
		errors.Is(err, transfer.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, transfer.ErrTransferPending),
		errors.Is(err, transfer.ErrTransferFinalized):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pageParams parses limit/offset query parameters; the services clamp them.
func pageParams(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
