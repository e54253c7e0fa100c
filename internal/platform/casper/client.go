package casper

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrUnavailable marks transient RPC failures; callers may retry and
	// must never cache a partial result.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrAccountNotFound means no block resolves the queried account key.
	ErrAccountNotFound = errors.New("account not found on chain")
)

// rpcErrCodeValueNotFound is returned by state queries when the key does
// not resolve at the given state root.
const rpcErrCodeValueNotFound = -32003

// Client speaks the node's JSON-RPC interface: block lookup, state queries,
// purse balance reads and the auction snapshot.
type Client struct {
	rpcURL     string
	httpClient *http.Client
}

func NewClient(rpcURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		rpcURL:     strings.TrimRight(rpcURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Block carries the header fields the standing fetch needs.
type Block struct {
	Height        uint64
	Timestamp     time.Time
	StateRootHash string
}

// Delegation is a single delegator entry under a validator bid.
type Delegation struct {
	PublicKey string `json:"public_key"`
	Amount    string `json:"staked_amount"`
}

// Validator is one entry of the active bid set.
type Validator struct {
	PublicKey   string
	Delegations []Delegation
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// RPCError is a structured error returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: http %d", ErrUnavailable, method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
		}
	}
	return nil
}

type blockResult struct {
	Block struct {
		Header struct {
			Height        uint64    `json:"height"`
			Timestamp     time.Time `json:"timestamp"`
			StateRootHash string    `json:"state_root_hash"`
		} `json:"header"`
	} `json:"block"`
}

func toBlock(r *blockResult) *Block {
	return &Block{
		Height:        r.Block.Header.Height,
		Timestamp:     r.Block.Header.Timestamp,
		StateRootHash: r.Block.Header.StateRootHash,
	}
}

// LatestBlock returns the tip of the chain.
func (c *Client) LatestBlock(ctx context.Context) (*Block, error) {
	var out blockResult
	if err := c.call(ctx, "chain_get_block", nil, &out); err != nil {
		return nil, err
	}
	return toBlock(&out), nil
}

// BlockByHeight returns the block at the given height.
func (c *Client) BlockByHeight(ctx context.Context, height uint64) (*Block, error) {
	params := map[string]interface{}{
		"block_identifier": map[string]uint64{"Height": height},
	}
	var out blockResult
	if err := c.call(ctx, "chain_get_block", params, &out); err != nil {
		return nil, err
	}
	return toBlock(&out), nil
}

type accountResult struct {
	StoredValue struct {
		Account struct {
			MainPurse string `json:"main_purse"`
		} `json:"Account"`
	} `json:"stored_value"`
}

// AccountMainPurse resolves the account key at the given state root and
// returns its main purse URef. found is false when the key does not resolve
// at that root, which is a conclusive answer, not a failure.
func (c *Client) AccountMainPurse(ctx context.Context, stateRootHash, accountKey string) (purse string, found bool, err error) {
	params := map[string]interface{}{
		"state_root_hash": stateRootHash,
		"key":             accountKey,
		"path":            []string{},
	}
	var out accountResult
	if err := c.call(ctx, "state_get_item", params, &out); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == rpcErrCodeValueNotFound {
			return "", false, nil
		}
		if errors.Is(err, ErrUnavailable) {
			return "", false, err
		}
		return "", false, fmt.Errorf("%w: state_get_item: %v", ErrUnavailable, err)
	}
	return out.StoredValue.Account.MainPurse, true, nil
}

// PurseBalance reads the balance of a purse at the given state root.
func (c *Client) PurseBalance(ctx context.Context, stateRootHash, purse string) (string, error) {
	params := map[string]string{
		"state_root_hash": stateRootHash,
		"purse_uref":      purse,
	}
	var out struct {
		BalanceValue string `json:"balance_value"`
	}
	if err := c.call(ctx, "state_get_balance", params, &out); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: state_get_balance: %v", ErrUnavailable, err)
	}
	return out.BalanceValue, nil
}

type auctionResult struct {
	AuctionState struct {
		Bids []struct {
			PublicKey string `json:"public_key"`
			Bid       struct {
				Delegators []Delegation `json:"delegators"`
			} `json:"bid"`
		} `json:"bids"`
	} `json:"auction_state"`
}

// Validators fetches the full active validator set with delegations.
func (c *Client) Validators(ctx context.Context) ([]Validator, error) {
	var out auctionResult
	if err := c.call(ctx, "state_get_auction_info", nil, &out); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: state_get_auction_info: %v", ErrUnavailable, err)
	}
	validators := make([]Validator, 0, len(out.AuctionState.Bids))
	for _, b := range out.AuctionState.Bids {
		validators = append(validators, Validator{
			PublicKey:   b.PublicKey,
			Delegations: b.Bid.Delegators,
		})
	}
	return validators, nil
}

// AccountKey derives the global-state account key ("account-hash-<hex>")
// from a hex public key. The hash is blake2b-256 over the lowercase
// algorithm name, a zero byte, and the raw key bytes; the leading tag byte
// of the public key selects the algorithm (01 ed25519, 02 secp256k1).
func AccountKey(publicKeyHex string) (string, error) {
	keyHex := strings.ToLower(strings.TrimSpace(publicKeyHex))
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return "", fmt.Errorf("invalid public key hex: %w", err)
	}
	if len(raw) < 2 {
		return "", fmt.Errorf("public key too short")
	}

	var algo string
	switch raw[0] {
	case 0x01:
		algo = "ed25519"
	case 0x02:
		algo = "secp256k1"
	default:
		return "", fmt.Errorf("unknown key algorithm tag %#x", raw[0])
	}

	data := make([]byte, 0, len(algo)+1+len(raw)-1)
	data = append(data, []byte(algo)...)
	data = append(data, 0)
	data = append(data, raw[1:]...)

	sum := blake2b.Sum256(data)
	return "account-hash-" + hex.EncodeToString(sum[:]), nil
}
