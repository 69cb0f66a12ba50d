package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvalvo/executor-deployer/internal/data"
)

// DefaultCallTimeout bounds each individual HTTP round trip. Receipt
// polling has its own, longer deadline on top of this.
const DefaultCallTimeout = 30 * time.Second

type Client struct {
	BaseURL string
	headers map[string]string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient builds a JSON-RPC client for a single endpoint. Headers are
// fixed at construction and sent with every request; the client never
// mutates them.
func NewClient(baseURL string, headers map[string]string, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		headers: headers,
		client:  &http.Client{Timeout: DefaultCallTimeout},
		logger:  logger.With().Str("component", "rpc_client").Logger(),
	}
}

// Call posts one JSON-RPC request and returns the raw result member.
// A non-2xx response or connection failure yields a *TransportError,
// an "error" member in the envelope a *RPCError. No retries.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body := request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the keep-alive connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("unmarshal rpc response: %w", err)}
	}
	if envelope.Error != nil {
		c.logger.Debug().Str("method", method).Int("code", envelope.Error.Code).
			Str("message", envelope.Error.Message).Msg("node returned error")
		return nil, envelope.Error
	}
	return envelope.Result, nil
}

func (c *Client) callQuantity(ctx context.Context, method string, params ...any) (*data.Hex, error) {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return data.NewHexFromString(s)
}

func (c *Client) ChainID(ctx context.Context) (*data.Hex, error) {
	return c.callQuantity(ctx, "eth_chainId")
}

// PendingNonce reads the pending-inclusive transaction count. Callers
// must fetch it fresh right before building a transaction.
func (c *Client) PendingNonce(ctx context.Context, addr string) (*data.Hex, error) {
	return c.callQuantity(ctx, "eth_getTransactionCount", addr, "pending")
}

func (c *Client) MaxPriorityFeePerGas(ctx context.Context) (*data.Hex, error) {
	return c.callQuantity(ctx, "eth_maxPriorityFeePerGas")
}

func (c *Client) GasPrice(ctx context.Context) (*data.Hex, error) {
	return c.callQuantity(ctx, "eth_gasPrice")
}

func (c *Client) GetLatestBlock(ctx context.Context) (*BlockData, error) {
	raw, err := c.Call(ctx, "eth_getBlockByNumber", "latest", false)
	if err != nil {
		return nil, err
	}
	var block BlockData
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return &block, nil
}

func (c *Client) EstimateGas(ctx context.Context, txDraft map[string]any) (*data.Hex, error) {
	return c.callQuantity(ctx, "eth_estimateGas", txDraft)
}

func (c *Client) SendRawTransaction(ctx context.Context, signedHex string) (string, error) {
	raw, err := c.Call(ctx, "eth_sendRawTransaction", signedHex)
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(raw, &txHash); err != nil {
		return "", fmt.Errorf("decode tx hash: %w", err)
	}
	return txHash, nil
}

// GetTransactionReceipt returns (nil, nil) while the transaction is not
// yet mined: a null result is not an error.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	raw, err := c.Call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	receipt.Raw = raw
	return &receipt, nil
}
