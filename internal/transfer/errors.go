package transfer

import "errors"

var (
	// ErrTransferPending is returned when the sender already has a pending
	// transfer for the same token.
	ErrTransferPending = errors.New("transfer already pending for this token")

	// ErrTransferFinalized is returned when an update would move a terminal
	// record to a different status.
	ErrTransferFinalized = errors.New("transfer already finalized")

	// ErrInvalidStatus is returned for status values outside the lifecycle.
	ErrInvalidStatus = errors.New("invalid transfer status")

	// ErrSelfTransfer is returned when sender and recipient are the same wallet.
	ErrSelfTransfer = errors.New("sender and recipient are the same wallet")

	// ErrEmptyTokenID is returned for requests without a token id.
	ErrEmptyTokenID = errors.New("empty token id")
)
