package domain

// ChainTransferEvent is one entry of a wallet's token transfer log as returned
// by the external indexer. Read-only from the core's perspective.
type ChainTransferEvent struct {
	FromAddress     string // lowercase
	ToAddress       string // lowercase
	ContractAddress string // lowercase
	TokenID         string
	TokenName       string // collection name if the indexer reports one
	TxHash          string
	Timestamp       int64 // unix seconds, as reported by the indexer
}
