package rpc

import "encoding/json"

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error,omitempty"`
}

// eth_getBlockByNumber (header fields only; transactions are never requested)
type BlockData struct {
	Number        string `json:"number"`
	BaseFeePerGas string `json:"baseFeePerGas"` // absent pre EIP-1559
}

// eth_getTransactionReceipt
type Receipt struct {
	Status            string `json:"status"` // 0x1 went through, 0x0 it failed
	ContractAddress   string `json:"contractAddress"`
	GasUsed           string `json:"gasUsed"`
	EffectiveGasPrice string `json:"effectiveGasPrice"`
	TransactionHash   string `json:"transactionHash"`
	BlockNumber       string `json:"blockNumber"`

	// Raw keeps the full payload for diagnosis on revert.
	Raw json.RawMessage `json:"-"`
}

// Succeeded reports whether the transaction was mined with status 1.
func (r *Receipt) Succeeded() bool {
	return r.Status == "0x1"
}
