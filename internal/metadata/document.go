package metadata

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/gateway"
)

// recognizedFields are payload keys mapped onto first-class columns; anything
// else lands in Extra untouched.
var recognizedFields = map[string]struct{}{
	"name":        {},
	"description": {},
	"image":       {},
	"image_url":   {},
	"attributes":  {},
}

// ExpandIDTemplate substitutes the {id} placeholder in a multi-edition uri
// template with the token id as 64 lowercase hex digits. Templates without
// the placeholder pass through unchanged.
func ExpandIDTemplate(tmpl, tokenID string) string {
	if !strings.Contains(tmpl, "{id}") {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, "{id}", padTokenID(tokenID))
}

// padTokenID renders a decimal or 0x-hex token id as 64 lowercase hex digits.
// Unparseable ids fall back to the raw string so the URL still points somewhere
// deterministic.
func padTokenID(tokenID string) string {
	s := strings.TrimSpace(tokenID)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok || n.Sign() < 0 {
		return tokenID
	}
	return fmt.Sprintf("%064x", n)
}

// parseDocument maps a raw metadata payload onto a TokenMetadata, applying
// placeholder defaults for missing fields and banking unrecognized fields
// into Extra.
func parseDocument(contract, tokenID string, body []byte, nowMs int64) (*domain.TokenMetadata, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal metadata payload: %w", err)
	}

	meta := &domain.TokenMetadata{
		ContractAddress: contract,
		TokenID:         tokenID,
		Name:            DefaultName,
		Description:     DefaultDescription,
		Attributes:      []domain.TokenAttribute{},
		LastUpdated:     nowMs,
		LastChecked:     nowMs,
	}

	if raw, ok := payload["name"]; ok {
		var name string
		if json.Unmarshal(raw, &name) == nil && name != "" {
			meta.Name = name
		}
	}
	if raw, ok := payload["description"]; ok {
		var desc string
		if json.Unmarshal(raw, &desc) == nil && desc != "" {
			meta.Description = desc
		}
	}
	// "image" wins over the older "image_url" spelling. Either way the value
	// is normalized so ipfs:// and bare-path images resolve over HTTP.
	for _, field := range []string{"image", "image_url"} {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var img string
		if json.Unmarshal(raw, &img) == nil && img != "" {
			meta.ImageURL = gateway.NormalizeURI(img)
			break
		}
	}
	if raw, ok := payload["attributes"]; ok {
		var attrs []domain.TokenAttribute
		if json.Unmarshal(raw, &attrs) == nil && attrs != nil {
			meta.Attributes = attrs
		}
	}

	for field, raw := range payload {
		if _, known := recognizedFields[field]; known {
			continue
		}
		var v interface{}
		if json.Unmarshal(raw, &v) != nil {
			continue
		}
		if meta.Extra == nil {
			meta.Extra = make(map[string]interface{})
		}
		meta.Extra[field] = v
	}

	return meta, nil
}
