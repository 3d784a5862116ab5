// Package solana implements the ledger verification client against the
// Solana JSON-RPC API. It is the only component in the system that talks to
// the external ledger.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Verification failure causes. VerifyTransfer folds all of them into a
// single false result; the error value is for internal logging only.
var (
	errTxNotFound           = errors.New("transaction not found at confirmed commitment")
	errTxFailed             = errors.New("transaction execution failed on chain")
	errNoTransfer           = errors.New("no parsed transfer instruction in transaction")
	errWrongDestination     = errors.New("transfer destination does not match")
	errInsufficientLamports = errors.New("transferred amount below required minimum")
)

// Client is the JSON-RPC client for a Solana node.
type Client struct {
	rpcURL     string
	httpClient *http.Client
}

// NewClient creates a new Solana RPC client.
//
// rpcURL is the JSON-RPC endpoint, e.g. "https://api.devnet.solana.com".
// timeout bounds each individual RPC call; zero selects a 30s default.
func NewClient(rpcURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		rpcURL: rpcURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// call performs a single JSON-RPC 2.0 request and decodes the result into
// out. A JSON null result leaves out untouched.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("solana: marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("solana: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("solana: %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("solana: read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("solana: %s: unexpected status %d", method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("solana: decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("solana: %s: rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if len(envelope.Result) == 0 || bytes.Equal(envelope.Result, []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("solana: decode %s result: %w", method, err)
	}
	return nil
}

// GetTransaction fetches a transaction by signature at confirmed commitment
// with jsonParsed encoding. It returns nil (and no error) when the ledger
// does not know the signature.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*TransactionResult, error) {
	params := []any{
		signature,
		map[string]any{
			"commitment":                     "confirmed",
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *TransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetVersion returns the node's solana-core version string. Used as a cheap
// liveness probe for the RPC endpoint.
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	var result versionResult
	if err := c.call(ctx, "getVersion", nil, &result); err != nil {
		return "", err
	}
	return result.SolanaCore, nil
}

// VerifyTransfer confirms that the transaction identified by signature
// carries a successful system-program transfer of at least minAmount SOL to
// destination. It fails closed: any missing, malformed, or mismatched field
// yields false. The returned error names the cause for logging; callers
// must not treat its presence or absence as the verification outcome.
func (c *Client) VerifyTransfer(ctx context.Context, signature, destination string, minAmount float64) (bool, error) {
	tx, err := c.GetTransaction(ctx, signature)
	if err != nil {
		return false, err
	}
	if tx == nil {
		return false, errTxNotFound
	}

	if tx.Meta == nil || tx.Meta.Err != nil {
		return false, errTxFailed
	}
	if tx.Transaction == nil {
		return false, errNoTransfer
	}

	dest, lamports, found := firstTransfer(tx.Transaction.Message.Instructions)
	if !found {
		return false, errNoTransfer
	}

	if dest != destination {
		return false, errWrongDestination
	}

	// Convert the display-unit minimum to lamports. Integer conversion
	// truncates, matching the ledger's own base-unit comparison semantics.
	// Minimums that are non-finite or would overflow int64 cannot be
	// compared meaningfully, so they fail closed.
	if math.IsNaN(minAmount) || math.IsInf(minAmount, 0) || minAmount > math.MaxInt64/LamportsPerSol {
		return false, errInsufficientLamports
	}
	required := int64(minAmount * LamportsPerSol)
	if lamports < required {
		return false, errInsufficientLamports
	}

	return true, nil
}

// firstTransfer scans the instruction list for the first parsed transfer
// instruction and extracts its destination and lamport amount. Elements
// that fail to decode are skipped rather than failing the scan.
func firstTransfer(instructions []json.RawMessage) (dest string, lamports int64, found bool) {
	for _, raw := range instructions {
		var inst parsedInstruction
		if err := json.Unmarshal(raw, &inst); err != nil {
			continue
		}
		if inst.Parsed == nil || inst.Parsed.Type != "transfer" {
			continue
		}

		amount, err := inst.Parsed.Info.Lamports.Int64()
		if err != nil {
			amount = 0
		}
		return inst.Parsed.Info.Destination, amount, true
	}
	return "", 0, false
}
