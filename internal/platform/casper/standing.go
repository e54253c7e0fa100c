package casper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Standing is one consistent read of an account's on-chain facts. All four
// fields come from the same invocation; a failure in any of the underlying
// calls fails the whole fetch so a partial standing is never produced.
type Standing struct {
	Balance      string
	AgeHours     float64
	IsValidator  bool
	StakedAmount string
}

// FetchStanding derives the account's balance, age, validator flag and
// total staked amount from the ledger.
func (c *Client) FetchStanding(ctx context.Context, publicKey string) (*Standing, error) {
	accountKey, err := AccountKey(publicKey)
	if err != nil {
		return nil, err
	}

	latest, err := c.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}

	// Balance: purse resolution then balance read, two sequential trips.
	purse, found, err := c.AccountMainPurse(ctx, latest.StateRootHash, accountKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, publicKey)
	}
	balance, err := c.PurseBalance(ctx, latest.StateRootHash, purse)
	if err != nil {
		return nil, err
	}

	creation, err := c.earliestAccountBlock(ctx, accountKey, latest.Height)
	if err != nil {
		return nil, err
	}
	ageHours := time.Since(creation.Timestamp).Hours()

	validators, err := c.Validators(ctx)
	if err != nil {
		return nil, err
	}
	isValidator, staked, err := accountStake(publicKey, validators)
	if err != nil {
		return nil, err
	}

	return &Standing{
		Balance:      balance,
		AgeHours:     ageHours,
		IsValidator:  isValidator,
		StakedAmount: staked,
	}, nil
}

// earliestAccountBlock finds the first block at which the account key
// resolves. "exists at height h" is monotone in h, so a binary search over
// [1, tip] converges on the creation block. The caller has already
// established that the account exists at the tip.
func (c *Client) earliestAccountBlock(ctx context.Context, accountKey string, tipHeight uint64) (*Block, error) {
	lo, hi := uint64(1), tipHeight
	for lo < hi {
		mid := lo + (hi-lo)/2
		block, err := c.BlockByHeight(ctx, mid)
		if err != nil {
			return nil, err
		}
		_, found, err := c.AccountMainPurse(ctx, block.StateRootHash, accountKey)
		if err != nil {
			return nil, err
		}
		if found {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return c.BlockByHeight(ctx, lo)
}

// accountStake reports whether the key is an active validator and sums its
// delegations across all validators. An account may delegate to several
// validators at once; the amounts are summed, never maxed.
func accountStake(publicKey string, validators []Validator) (bool, string, error) {
	isValidator := false
	total := decimal.Zero
	for _, v := range validators {
		if strings.EqualFold(v.PublicKey, publicKey) {
			isValidator = true
		}
		for _, d := range v.Delegations {
			if !strings.EqualFold(d.PublicKey, publicKey) {
				continue
			}
			amount, err := decimal.NewFromString(d.Amount)
			if err != nil {
				return false, "", fmt.Errorf("%w: malformed delegation amount %q", ErrUnavailable, d.Amount)
			}
			total = total.Add(amount)
		}
	}
	return isValidator, total.String(), nil
}
