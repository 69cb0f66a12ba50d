package deploy

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvalvo/executor-deployer/internal/data"
	"github.com/nvalvo/executor-deployer/internal/fees"
	"github.com/nvalvo/executor-deployer/internal/receipt"
	"github.com/nvalvo/executor-deployer/internal/rpc"
	"github.com/nvalvo/executor-deployer/internal/signer"
	"github.com/nvalvo/executor-deployer/internal/txbuild"
)

// RevertedError means the deployment transaction was mined with
// status 0. The receipt is kept for diagnosis and journaling.
type RevertedError struct {
	ChainID *big.Int
	TxHash  string
	Receipt *rpc.Receipt
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("deployment tx %s reverted", e.TxHash)
}

// Options tune a deployment run; the zero value means estimate gas,
// no fee overrides, default polling.
type Options struct {
	FeeOverrides fees.Overrides
	GasLimit     uint64
	PollInterval time.Duration
	Timeout      time.Duration
}

// Result reports a successful deployment.
type Result struct {
	ChainID         *big.Int
	TxHash          string
	ContractAddress string
	Receipt         *rpc.Receipt
}

// Deployer runs the deployment pipeline end to end. Every step is one
// blocking call; a failure outside the designed fallbacks aborts the
// run.
type Deployer struct {
	client    *rpc.Client
	signer    *signer.Signer
	estimator *fees.Estimator
	builder   *txbuild.Builder
	waiter    *receipt.Waiter
	opts      Options
	logger    zerolog.Logger
}

func New(client *rpc.Client, s *signer.Signer, opts Options, logger zerolog.Logger) *Deployer {
	return &Deployer{
		client:    client,
		signer:    s,
		estimator: fees.NewEstimator(client, opts.FeeOverrides, logger),
		builder:   txbuild.NewBuilder(client, logger),
		waiter:    receipt.NewWaiter(client, opts.PollInterval, opts.Timeout, logger),
		opts:      opts,
		logger:    logger.With().Str("component", "deployer").Logger(),
	}
}

// Calldata concatenates creation bytecode with the single ABI-encoded
// constructor argument. Exactly one right-aligned 32-byte word follows
// the bytecode, whatever the address's casing or prefix.
func Calldata(bytecode, poolAddress string) string {
	return "0x" + data.StripPrefix(bytecode) + data.EncodeAddress(poolAddress)
}

// Deploy runs chain id -> calldata -> nonce -> fees -> gas -> sign ->
// submit -> wait, in that order with no branching back.
func (d *Deployer) Deploy(ctx context.Context, bytecode, poolAddress string) (*Result, error) {
	chainID, err := d.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	d.logger.Info().Uint64("chain_id", chainID.Uint64()).Str("deployer", d.signer.Address()).
		Msg("starting deployment")

	calldata := Calldata(bytecode, poolAddress)

	// nonce is read fresh every attempt, never cached
	nonce, err := d.client.PendingNonce(ctx, d.signer.Address())
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	quote, err := d.estimator.Estimate(ctx)
	if err != nil {
		return nil, fmt.Errorf("estimate fees: %w", err)
	}

	tx, err := d.builder.Build(ctx, txbuild.Params{
		From:        d.signer.Address(),
		Nonce:       nonce.Uint64(),
		ChainID:     chainID.Int,
		Calldata:    calldata,
		Fee:         quote,
		GasOverride: d.opts.GasLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("build tx: %w", err)
	}
	d.logger.Info().Uint64("nonce", tx.Nonce).Uint64("gas", tx.Gas).
		Bool("eip1559", quote.IsEIP1559()).Msg("transaction built")

	rawTx, err := d.signer.SignDeployment(tx)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	txHash, err := d.client.SendRawTransaction(ctx, rawTx)
	if err != nil {
		return nil, fmt.Errorf("submit tx: %w", err)
	}
	d.logger.Info().Str("tx_hash", txHash).Msg("deployment submitted")

	mined, err := d.waiter.Wait(ctx, txHash)
	if err != nil {
		return nil, err
	}

	if !mined.Succeeded() {
		return nil, &RevertedError{ChainID: chainID.Int, TxHash: txHash, Receipt: mined}
	}

	d.logger.Info().Str("tx_hash", txHash).Str("contract", mined.ContractAddress).
		Str("block", mined.BlockNumber).Msg("deployment mined")
	return &Result{
		ChainID:         chainID.Int,
		TxHash:          txHash,
		ContractAddress: mined.ContractAddress,
		Receipt:         mined,
	}, nil
}
