// Package stub provides an in-memory chain.Client for testing.
package stub

import (
	"context"
	"errors"
	"math/big"
)

// ErrNoData is returned when the stub holds no entry for a query.
var ErrNoData = errors.New("no data")

func key(contract, tokenID string) string {
	return contract + "-" + tokenID
}

// Client implements chain.Client from fixed maps.
type Client struct {
	Owners    map[string]string   // (contract-tokenID) -> owner address
	Balances  map[string]*big.Int // (owner-contract-tokenID) -> balance
	TokenURIs map[string]string   // (contract-tokenID) -> tokenURI
	URIs      map[string]string   // (contract-tokenID) -> uri template

	// OwnerOfErr forces OwnerOf to fail, mimicking contracts without the
	// single-owner interface.
	OwnerOfErr error
}

// NewClient creates an empty stub client.
func NewClient() *Client {
	return &Client{
		Owners:    make(map[string]string),
		Balances:  make(map[string]*big.Int),
		TokenURIs: make(map[string]string),
		URIs:      make(map[string]string),
	}
}

// OwnerOf returns the configured owner for the token.
func (c *Client) OwnerOf(_ context.Context, contract, tokenID string) (string, error) {
	if c.OwnerOfErr != nil {
		return "", c.OwnerOfErr
	}
	owner, ok := c.Owners[key(contract, tokenID)]
	if !ok {
		return "", ErrNoData
	}
	return owner, nil
}

// BalanceOf returns the configured balance, zero when absent.
func (c *Client) BalanceOf(_ context.Context, owner, contract, tokenID string) (*big.Int, error) {
	bal, ok := c.Balances[owner+"-"+key(contract, tokenID)]
	if !ok {
		return big.NewInt(0), nil
	}
	return bal, nil
}

// TokenURI returns the configured tokenURI.
func (c *Client) TokenURI(_ context.Context, contract, tokenID string) (string, error) {
	uri, ok := c.TokenURIs[key(contract, tokenID)]
	if !ok {
		return "", ErrNoData
	}
	return uri, nil
}

// URI returns the configured uri template.
func (c *Client) URI(_ context.Context, contract, tokenID string) (string, error) {
	uri, ok := c.URIs[key(contract, tokenID)]
	if !ok {
		return "", ErrNoData
	}
	return uri, nil
}
