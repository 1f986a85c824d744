// Package transfer manages the transfer lifecycle: a pending record per
// initiated transfer that moves to exactly one terminal status, with wallet
// cache invalidation on every state change.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/storage"
)

// Invalidator drops a wallet's cached pages.
type Invalidator interface {
	InvalidateWallet(ctx context.Context, wallet string) (int, error)
}

// Coordinator drives transfer records through the lifecycle. Invalidation is
// best-effort: a stale cached page costs at most its TTL, a lost record is
// permanent, so persistence always comes first.
type Coordinator struct {
	store       storage.TransferStore
	invalidator Invalidator
	logger      *logrus.Logger
	now         func() time.Time
	newID       func() string
}

// NewCoordinator creates a Coordinator. invalidator may be nil when no cache
// is wired.
func NewCoordinator(store storage.TransferStore, invalidator Invalidator, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		store:       store,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Initiate validates the request, rejects a duplicate pending transfer for
// the same (sender, contract, token id), and persists a new pending record.
func (c *Coordinator) Initiate(ctx context.Context, from, to, contract, tokenID string) (*domain.TransferRecord, error) {
	fromAddr, err := domain.NormalizeAddress(from)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	toAddr, err := domain.NormalizeAddress(to)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	contractAddr, err := domain.NormalizeAddress(contract)
	if err != nil {
		return nil, fmt.Errorf("contract: %w", err)
	}
	if fromAddr == toAddr {
		return nil, ErrSelfTransfer
	}
	if tokenID == "" {
		return nil, ErrEmptyTokenID
	}

	pending, err := c.store.HasPending(ctx, fromAddr, contractAddr, tokenID)
	if err != nil {
		return nil, fmt.Errorf("pending check: %w", err)
	}
	if pending {
		return nil, ErrTransferPending
	}

	nowMs := c.now().UnixMilli()
	record := &domain.TransferRecord{
		ID:              c.newID(),
		FromAddress:     fromAddr,
		ToAddress:       toAddr,
		ContractAddress: contractAddr,
		TokenID:         tokenID,
		Status:          domain.TransferStatusPending,
		CreatedAt:       nowMs,
		UpdatedAt:       nowMs,
	}

	if err := c.store.Insert(ctx, record); err != nil {
		// Best effort: if a partial row made it in, mark it failed so it
		// cannot linger as pending and block retries.
		msg := err.Error()
		if _, updateErr := c.store.UpdateStatus(ctx, record.ID, domain.TransferStatusFailed, nil, &msg, c.now().UnixMilli()); updateErr != nil && !errors.Is(updateErr, storage.ErrNotFound) {
			c.logger.WithError(updateErr).WithField("transfer_id", record.ID).Warn("could not mark broken transfer failed")
		}
		return nil, fmt.Errorf("insert transfer: %w", err)
	}

	c.invalidate(ctx, record.FromAddress, record.ToAddress)
	return record, nil
}

// GetStatus retrieves a transfer record by id. Status polls usually mean the
// on-chain state just moved, so both parties' cached pages are dropped to
// force a fresh reconciliation on their next read.
func (c *Coordinator) GetStatus(ctx context.Context, id string) (*domain.TransferRecord, error) {
	record, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transfer %s: %w", id, err)
	}
	c.invalidate(ctx, record.FromAddress, record.ToAddress)
	return record, nil
}

// UpdateStatus moves a record to a new status. Repeating a terminal status is
// an idempotent no-op; changing one is rejected with ErrTransferFinalized.
// The record is persisted before any cache invalidation.
func (c *Coordinator) UpdateStatus(ctx context.Context, id string, status domain.TransferStatus, txHash, errMsg *string) (*domain.TransferRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transfer %s: %w", id, err)
	}

	if current.Status.Terminal() {
		if current.Status == status {
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s is already %s", ErrTransferFinalized, id, current.Status)
	}

	updated, err := c.store.UpdateStatus(ctx, id, status, txHash, errMsg, c.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("update transfer %s: %w", id, err)
	}

	c.invalidate(ctx, updated.FromAddress, updated.ToAddress)
	return updated, nil
}

// invalidate drops cached pages for both parties, logging failures.
func (c *Coordinator) invalidate(ctx context.Context, wallets ...string) {
	if c.invalidator == nil {
		return
	}
	for _, w := range wallets {
		if _, err := c.invalidator.InvalidateWallet(ctx, w); err != nil {
			c.logger.WithError(err).WithField("wallet", w).Warn("wallet cache invalidation failed")
		}
	}
}
