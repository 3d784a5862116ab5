package solana

import "encoding/json"

// LamportsPerSol is the fixed scale between the display unit (SOL) and the
// ledger's indivisible base unit (lamports).
const LamportsPerSol = 1_000_000_000

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// rpcError is the JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is the JSON-RPC 2.0 response envelope. Result stays raw so
// each call site can decode into its own shape.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// TransactionResult is the subset of a getTransaction response (jsonParsed
// encoding) that verification consumes. All fields are optional on the wire;
// absence of any of them means the proof cannot be verified.
type TransactionResult struct {
	Meta        *TransactionMeta    `json:"meta"`
	Transaction *TransactionPayload `json:"transaction"`
}

// TransactionMeta carries the on-chain execution outcome. Err is the raw
// "err" field: JSON null (decoded as nil) means the transaction succeeded,
// anything else is an execution error.
type TransactionMeta struct {
	Err any `json:"err"`
}

// TransactionPayload wraps the parsed transaction message.
type TransactionPayload struct {
	Message TransactionMessage `json:"message"`
}

// TransactionMessage holds the instruction list. Instructions stay raw so a
// single malformed element cannot fail decoding of the whole list.
type TransactionMessage struct {
	Instructions []json.RawMessage `json:"instructions"`
}

// parsedInstruction is a jsonParsed instruction as emitted for programs the
// RPC node knows how to decode. Non-parsed instructions lack the "parsed"
// field entirely.
type parsedInstruction struct {
	Program string `json:"program"`
	Parsed  *struct {
		Type string       `json:"type"`
		Info transferInfo `json:"info"`
	} `json:"parsed"`
}

// transferInfo is the instruction payload for a system-program transfer.
// Lamports is a json.Number so both integer and quoted encodings decode.
type transferInfo struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Lamports    json.Number `json:"lamports"`
}

// versionResult is the subset of a getVersion response used by the health
// probe.
type versionResult struct {
	SolanaCore string `json:"solana-core"`
}
