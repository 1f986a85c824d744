// Package ownership verifies on-chain token ownership through an ordered
// chain of contract query strategies.
package ownership

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/redengineer-ownplay/TheMarketplace/internal/chain"
	"github.com/redengineer-ownplay/TheMarketplace/internal/domain"
)

// queryStrategy is one way of asking a contract whether a wallet holds a
// token. Strategies fail on contracts that do not implement their interface.
type queryStrategy interface {
	name() string
	tokenType() domain.TokenType
	check(ctx context.Context, client chain.Client, wallet, contract, tokenID string) (bool, error)
}

// singleOwnerQuery asks ownerOf(tokenId) and compares the returned address.
type singleOwnerQuery struct{}

func (singleOwnerQuery) name() string { return "ownerOf" }

func (singleOwnerQuery) tokenType() domain.TokenType { return domain.TokenTypeERC721 }

func (singleOwnerQuery) check(ctx context.Context, client chain.Client, wallet, contract, tokenID string) (bool, error) {
	owner, err := client.OwnerOf(ctx, contract, tokenID)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(owner, wallet), nil
}

// balanceQuery asks balanceOf(wallet, tokenId) and treats any positive
// balance as ownership. Multi-edition contracts have no single owner.
type balanceQuery struct{}

func (balanceQuery) name() string { return "balanceOf" }

func (balanceQuery) tokenType() domain.TokenType { return domain.TokenTypeERC1155 }

func (balanceQuery) check(ctx context.Context, client chain.Client, wallet, contract, tokenID string) (bool, error) {
	bal, err := client.BalanceOf(ctx, wallet, contract, tokenID)
	if err != nil {
		return false, err
	}
	return bal.Sign() > 0, nil
}

// Verifier resolves ownership by trying each strategy in order. The first
// strategy that answers without error decides; a strategy error means "wrong
// contract standard, try the next".
type Verifier struct {
	client     chain.Client
	strategies []queryStrategy
	logger     *logrus.Logger
}

// NewVerifier creates a Verifier over the standard strategy order:
// single-owner lookup first, balance lookup second.
func NewVerifier(client chain.Client, logger *logrus.Logger) *Verifier {
	return &Verifier{
		client:     client,
		strategies: []queryStrategy{singleOwnerQuery{}, balanceQuery{}},
		logger:     logger,
	}
}

// Verify reports whether wallet currently holds the token, plus the token
// standard inferred from the strategy that answered. When every strategy
// errors the token is treated as not owned; verification failures must never
// surface a token the chain cannot confirm.
func (v *Verifier) Verify(ctx context.Context, wallet, contract, tokenID string) (bool, domain.TokenType) {
	for _, s := range v.strategies {
		owned, err := s.check(ctx, v.client, wallet, contract, tokenID)
		if err != nil {
			v.logger.WithError(err).WithFields(logrus.Fields{
				"strategy": s.name(),
				"contract": contract,
				"token_id": tokenID,
			}).Debug("ownership query failed, trying next strategy")
			continue
		}
		return owned, s.tokenType()
	}

	v.logger.WithFields(logrus.Fields{
		"wallet":   wallet,
		"contract": contract,
		"token_id": tokenID,
	}).Warn("all ownership queries failed, treating token as not owned")
	return false, domain.TokenTypeERC721
}

// Owns is Verify without the inferred token standard.
func (v *Verifier) Owns(ctx context.Context, wallet, contract, tokenID string) bool {
	owned, _ := v.Verify(ctx, wallet, contract, tokenID)
	return owned
}
