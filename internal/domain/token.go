package domain

// TokenType identifies the on-chain ownership convention of a token contract.
type TokenType string

// Supported token standards.
const (
	// TokenTypeERC721 is the single-owner standard: every token has exactly
	// one owner address at any time.
	TokenTypeERC721 TokenType = "ERC721"

	// TokenTypeERC1155 is the balance-based standard: ownership is a
	// per-address quantity for each token id.
	TokenTypeERC1155 TokenType = "ERC1155"
)

// HeldToken is a token currently believed to be owned by a wallet, as derived
// by replaying the wallet's transfer log. Identity is (ContractAddress, TokenID).
// Corresponds to the held_tokens table in PostgreSQL.
type HeldToken struct {
	OwnerAddress    string         `json:"ownerAddress" msgpack:"owner_address"`       // wallet the holding was derived for (lowercase)
	ContractAddress string         `json:"contractAddress" msgpack:"contract_address"` // token contract address (lowercase)
	TokenID         string         `json:"tokenId" msgpack:"token_id"`                 // token id, decimal string as reported by the indexer
	TokenType       TokenType      `json:"tokenType" msgpack:"token_type"`             // ownership convention of the contract
	DisplayName     string         `json:"name" msgpack:"display_name"`                // indexer-reported collection/token name
	Metadata        *TokenMetadata `json:"metadata,omitempty" msgpack:"metadata"`      // resolved descriptive metadata (may be a fallback record)
	UpdatedAt       int64          `json:"updatedAt" msgpack:"updated_at"`             // last reconciliation touch (unix ms)
}

// Key returns the identity key used to deduplicate holdings within a replay pass.
func (t *HeldToken) Key() string {
	return TokenKey(t.ContractAddress, t.TokenID)
}

// TokenKey builds the (contract, tokenID) identity key shared by holdings
// replay and store reconciliation.
func TokenKey(contractAddress, tokenID string) string {
	return contractAddress + "-" + tokenID
}

// TokenRef identifies one token without carrying any derived state.
type TokenRef struct {
	ContractAddress string
	TokenID         string
}
