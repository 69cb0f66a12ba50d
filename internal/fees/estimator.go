package fees

import (
	"context"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/nvalvo/executor-deployer/internal/data"
	"github.com/nvalvo/executor-deployer/internal/rpc"
)

// DefaultPriorityFeeGwei is the priority fee assumed when the node does
// not answer eth_maxPriorityFeePerGas and no override is given.
const DefaultPriorityFeeGwei = 30

// feeReader is the slice of the RPC client the estimator needs.
type feeReader interface {
	MaxPriorityFeePerGas(ctx context.Context) (*data.Hex, error)
	GetLatestBlock(ctx context.Context) (*rpc.BlockData, error)
	GasPrice(ctx context.Context) (*data.Hex, error)
}

type Estimator struct {
	client    feeReader
	overrides Overrides
	logger    zerolog.Logger
}

func NewEstimator(client feeReader, overrides Overrides, logger zerolog.Logger) *Estimator {
	return &Estimator{
		client:    client,
		overrides: overrides,
		logger:    logger.With().Str("component", "fee_estimator").Logger(),
	}
}

type quoteStrategy func(ctx context.Context, priorityFee *big.Int) (*Quote, error)

// Estimate resolves the fee quote through an ordered strategy chain:
// EIP-1559 first, legacy gas price as the terminal fallback. Only the
// terminal strategy's failure is fatal.
func (e *Estimator) Estimate(ctx context.Context) (*Quote, error) {
	priorityFee := e.priorityFee(ctx)

	strategies := []quoteStrategy{e.eip1559Quote, e.legacyQuote}

	var lastErr error
	for _, strategy := range strategies {
		quote, err := strategy(ctx, priorityFee)
		if err == nil {
			return quote, nil
		}
		lastErr = err
		e.logger.Warn().Err(err).Msg("fee strategy failed")
	}
	return nil, lastErr
}

// priorityFee resolves the tip: 30 gwei default, replaced by the node's
// suggestion when available, with a caller override beating both.
// Failures here are never fatal; some networks simply don't serve
// eth_maxPriorityFeePerGas.
func (e *Estimator) priorityFee(ctx context.Context) *big.Int {
	priority := new(big.Int).Mul(big.NewInt(DefaultPriorityFeeGwei), big.NewInt(1_000_000_000))

	suggested, err := e.client.MaxPriorityFeePerGas(ctx)
	if err != nil {
		e.logger.Debug().Err(err).Msg("eth_maxPriorityFeePerGas unavailable, keeping default")
	} else {
		priority = suggested.Int
	}

	if e.overrides.MaxPriorityFeeGwei != nil {
		priority = GweiToWei(*e.overrides.MaxPriorityFeeGwei)
	}
	return priority
}

func (e *Estimator) eip1559Quote(ctx context.Context, priorityFee *big.Int) (*Quote, error) {
	block, err := e.client.GetLatestBlock(ctx)
	if err != nil {
		return nil, err
	}

	baseFee := big.NewInt(0)
	if block.BaseFeePerGas != "" {
		parsed, err := data.NewHexFromString(block.BaseFeePerGas)
		if err != nil {
			return nil, err
		}
		baseFee = parsed.Int
	}

	var maxFee *big.Int
	if e.overrides.MaxFeeGwei != nil {
		maxFee = GweiToWei(*e.overrides.MaxFeeGwei)
	} else {
		// maxFee = 2*base + priority, headroom for one full base fee bump
		maxFee = new(big.Int).Mul(baseFee, big.NewInt(2))
		maxFee.Add(maxFee, priorityFee)
	}

	return &Quote{
		MaxPriorityFeePerGas: priorityFee,
		MaxFeePerGas:         maxFee,
	}, nil
}

func (e *Estimator) legacyQuote(ctx context.Context, _ *big.Int) (*Quote, error) {
	gasPrice, err := e.client.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return &Quote{GasPrice: gasPrice.Int}, nil
}
