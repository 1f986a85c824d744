package domain

// TokenAttribute is a single trait entry in a token's metadata attribute list.
// Value is kept as-is from the payload; marketplaces emit both strings and numbers.
type TokenAttribute struct {
	TraitType string      `json:"trait_type" msgpack:"trait_type"`
	Value     interface{} `json:"value" msgpack:"value"`
}

// TokenMetadata is the resolved descriptive metadata for a token.
// Corresponds to the nft_metadata table in PostgreSQL.
//
// Attributes is never nil; resolution defaults it to an empty slice.
// LastUpdated is monotonically non-decreasing per (ContractAddress, TokenID);
// the stores enforce this on upsert.
type TokenMetadata struct {
	ContractAddress string                 `json:"contractAddress" msgpack:"contract_address"`
	TokenID         string                 `json:"tokenId" msgpack:"token_id"`
	Name            string                 `json:"name" msgpack:"name"`
	Description     string                 `json:"description" msgpack:"description"`
	ImageURL        string                 `json:"image" msgpack:"image_url"`
	Attributes      []TokenAttribute       `json:"attributes" msgpack:"attributes"`
	Extra           map[string]interface{} `json:"extra,omitempty" msgpack:"extra"`    // unrecognized payload fields, pass-through only
	LastUpdated     int64                  `json:"lastUpdated" msgpack:"last_updated"` // unix ms
	LastChecked     int64                  `json:"lastChecked" msgpack:"last_checked"` // unix ms
}
