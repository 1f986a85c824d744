package domain

// TransferStatus is the lifecycle state of a transfer attempt.
type TransferStatus string

// Transfer lifecycle states. Transitions are one-way:
// pending -> completed | failed. Terminal states never change.
const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusFailed    TransferStatus = "failed"
)

// Valid reports whether s is a known transfer status.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferStatusPending, TransferStatusCompleted, TransferStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal state.
func (s TransferStatus) Terminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusFailed
}

// TransferRecord tracks one logical transfer attempt. Repeated attempts for
// the same token create new records. Corresponds to the transfers table.
type TransferRecord struct {
	ID              string         `json:"id" msgpack:"id"`
	FromAddress     string         `json:"fromAddress" msgpack:"from_address"` // lowercase
	ToAddress       string         `json:"toAddress" msgpack:"to_address"`     // lowercase
	ContractAddress string         `json:"contractAddress" msgpack:"contract_address"`
	TokenID         string         `json:"tokenId" msgpack:"token_id"`
	Status          TransferStatus `json:"status" msgpack:"status"`
	TxHash          *string        `json:"txHash,omitempty" msgpack:"tx_hash"` // set with the completed transition
	Error           *string        `json:"error,omitempty" msgpack:"error"`    // set with the failed transition
	CreatedAt       int64          `json:"createdAt" msgpack:"created_at"`     // unix ms
	UpdatedAt       int64          `json:"updatedAt" msgpack:"updated_at"`     // unix ms
}
