package txbuild

import (
	"context"
	"errors"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/nvalvo/executor-deployer/internal/data"
	"github.com/nvalvo/executor-deployer/internal/fees"
	"github.com/nvalvo/executor-deployer/internal/rpc"
)

// DefaultGasLimit is used when eth_estimateGas fails. Estimation
// commonly fails because the constructor would revert, so a deployment
// running on this fallback may still fail on-chain; it is a best-effort
// value, not a guarantee.
const DefaultGasLimit = 1_800_000

// gasMargin* apply a 20% safety margin on top of the node's estimate.
const (
	gasMarginNum = 12
	gasMarginDen = 10
)

// UnsignedTx is a contract-creation transaction before signing. To is
// implicitly nil and value zero. Only Gas is assigned after
// construction, once estimation resolves.
type UnsignedTx struct {
	From    string
	Nonce   uint64
	ChainID *big.Int
	Data    string // 0x-prefixed calldata
	Gas     uint64
	Fee     *fees.Quote
}

// Draft renders the transaction as an eth_estimateGas parameter:
// everything but the gas field.
func (tx *UnsignedTx) Draft() map[string]any {
	draft := map[string]any{
		"from":    tx.From,
		"nonce":   data.NewHexFromUint64(tx.Nonce).String(),
		"chainId": data.NewHexFromBig(tx.ChainID).String(),
		"to":      nil,
		"value":   "0x0",
		"data":    tx.Data,
	}
	if tx.Fee.IsEIP1559() {
		draft["maxPriorityFeePerGas"] = data.NewHexFromBig(tx.Fee.MaxPriorityFeePerGas).String()
		draft["maxFeePerGas"] = data.NewHexFromBig(tx.Fee.MaxFeePerGas).String()
		draft["type"] = "0x2"
	} else {
		draft["gasPrice"] = data.NewHexFromBig(tx.Fee.GasPrice).String()
	}
	return draft
}

type gasEstimator interface {
	EstimateGas(ctx context.Context, txDraft map[string]any) (*data.Hex, error)
}

type Builder struct {
	client gasEstimator
	logger zerolog.Logger
}

func NewBuilder(client gasEstimator, logger zerolog.Logger) *Builder {
	return &Builder{
		client: client,
		logger: logger.With().Str("component", "tx_builder").Logger(),
	}
}

// Params are the inputs to one transaction build.
type Params struct {
	From        string
	Nonce       uint64
	ChainID     *big.Int
	Calldata    string
	Fee         *fees.Quote
	GasOverride uint64 // 0 means estimate
}

// Build assembles the unsigned transaction and resolves its gas limit.
// An explicit override is used verbatim; otherwise the node's estimate
// plus a 20% margin, falling back to DefaultGasLimit when estimation
// errors out.
func (b *Builder) Build(ctx context.Context, p Params) (*UnsignedTx, error) {
	tx := &UnsignedTx{
		From:    p.From,
		Nonce:   p.Nonce,
		ChainID: p.ChainID,
		Data:    p.Calldata,
		Fee:     p.Fee,
	}

	if p.GasOverride != 0 {
		tx.Gas = p.GasOverride
		return tx, nil
	}

	estimate, err := b.client.EstimateGas(ctx, tx.Draft())
	if err != nil {
		event := b.logger.Warn().Err(err)
		var rpcErr *rpc.RPCError
		if errors.As(err, &rpcErr) {
			// an execution-revert error here usually means the
			// constructor itself would revert
			event = event.Int("rpc_code", rpcErr.Code)
		}
		event.Uint64("fallback_gas", DefaultGasLimit).
			Msg("gas estimation failed, using fallback limit")
		tx.Gas = DefaultGasLimit
		return tx, nil
	}

	tx.Gas = estimate.Uint64() * gasMarginNum / gasMarginDen
	return tx, nil
}
