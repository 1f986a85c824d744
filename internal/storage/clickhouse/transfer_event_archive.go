package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// TransferEventArchive implements storage.TransferEventArchive using ClickHouse.
// The table is a ReplacingMergeTree keyed by (wallet, tx_hash, contract_address,
// token_id), so re-archiving the same snapshot is harmless.
type TransferEventArchive struct {
	conn *Conn
}

// NewTransferEventArchive creates a new TransferEventArchive.
func NewTransferEventArchive(conn *Conn) *TransferEventArchive {
	return &TransferEventArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.TransferEventArchive = (*TransferEventArchive)(nil)

// Append stores a fetched transfer log snapshot for a wallet.
func (s *TransferEventArchive) Append(ctx context.Context, wallet string, events []*domain.ChainTransferEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO transfer_events (
			wallet, tx_hash, contract_address, token_id,
			from_address, to_address, token_name, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	wallet = strings.ToLower(wallet)
	for _, e := range events {
		err = batch.Append(
			wallet, e.TxHash, e.ContractAddress, e.TokenID,
			e.FromAddress, e.ToAddress, e.TokenName, uint64(e.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves archived events for a wallet, ordered by timestamp ASC.
// FINAL collapses rows the merge hasn't deduplicated yet.
func (s *TransferEventArchive) GetByWallet(ctx context.Context, wallet string) ([]*domain.ChainTransferEvent, error) {
	query := `
		SELECT tx_hash, contract_address, token_id,
		       from_address, to_address, token_name, timestamp
		FROM transfer_events FINAL
		WHERE wallet = ?
		ORDER BY timestamp ASC, tx_hash ASC
	`

	rows, err := s.conn.Query(ctx, query, strings.ToLower(wallet))
	if err != nil {
		return nil, fmt.Errorf("query archived events: %w", err)
	}
	defer rows.Close()

	return scanTransferEvents(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanTransferEvents scans multiple rows.
func scanTransferEvents(rows chRows) ([]*domain.ChainTransferEvent, error) {
	var events []*domain.ChainTransferEvent

	for rows.Next() {
		var e domain.ChainTransferEvent
		var timestamp uint64

		err := rows.Scan(
			&e.TxHash, &e.ContractAddress, &e.TokenID,
			&e.FromAddress, &e.ToAddress, &e.TokenName, &timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archived event row: %w", err)
		}

		e.Timestamp = int64(timestamp)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived event rows: %w", err)
	}

	return events, nil
}
