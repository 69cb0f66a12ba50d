package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nvalvo/executor-deployer/internal/compiler"
	"github.com/nvalvo/executor-deployer/internal/config"
	"github.com/nvalvo/executor-deployer/internal/data"
	"github.com/nvalvo/executor-deployer/internal/deploy"
	"github.com/nvalvo/executor-deployer/internal/fees"
	"github.com/nvalvo/executor-deployer/internal/journal"
	"github.com/nvalvo/executor-deployer/internal/logger"
	"github.com/nvalvo/executor-deployer/internal/rpc"
	"github.com/nvalvo/executor-deployer/internal/signer"
)

// headerList collects repeatable --header "Name: Value" flags.
type headerList []string

func (h *headerList) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerList) Set(v string) error {
	*h = append(*h, v)
	return nil
}

func main() {
	// .env from the working directory, if present
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
		os.Exit(1)
	}

	var headers headerList
	rpcURL := flag.String("rpc-url", cfg.RPCURL, "JSON-RPC endpoint URL")
	privateKey := flag.String("private-key", cfg.PrivateKey, "Deployer private key (0x...)")
	poolAddress := flag.String("pool-address", cfg.PoolAddress, "Aave v3 Pool (proxy) address")
	flag.Var(&headers, "header", "Extra HTTP header 'Name: Value'. Repeatable.")
	gasLimit := flag.Uint64("gas", cfg.GasLimit, "Override gas limit (units, 0 = estimate)")
	maxPriorityGwei := flag.String("max-priority-gwei", "", "Override maxPriorityFeePerGas in gwei")
	maxFeeGwei := flag.String("max-fee-gwei", "", "Override maxFeePerGas in gwei")
	artifactPath := flag.String("artifact", cfg.Contract.ArtifactPath, "Precompiled artifact JSON (skips solc)")
	sourcePath := flag.String("contract-source", cfg.Contract.SourcePath, "Solidity source to compile")
	receiptTimeout := flag.Uint64("receipt-timeout", cfg.ReceiptTimeoutSeconds, "Receipt wait deadline in seconds")
	flag.Parse()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if *privateKey == "" {
		log.Error().Err(config.ErrMissingPrivateKey).Msg("missing signing credential")
		os.Exit(1)
	}
	deployKey, err := signer.FromHexKey(*privateKey)
	if err != nil {
		log.Error().Err(err).Msg("bad private key")
		os.Exit(1)
	}
	log.Info().Str("deployer", deployKey.Address()).Msg("deployer account loaded")

	overrides, err := feeOverrides(cfg, *maxPriorityGwei, *maxFeeGwei)
	if err != nil {
		log.Error().Err(err).Msg("bad fee override")
		os.Exit(1)
	}

	artifact, err := loadArtifact(ctx, cfg, *artifactPath, *sourcePath)
	if err != nil {
		log.Error().Err(err).Msg("compiler failed")
		os.Exit(1)
	}
	log.Info().Str("contract", artifact.ContractName).
		Int("bytecode_hex_len", len(artifact.Bytecode)).Msg("bytecode ready")

	client := rpc.NewClient(*rpcURL, buildHeaders(cfg, headers), log)
	deployer := deploy.New(client, deployKey, deploy.Options{
		FeeOverrides: overrides,
		GasLimit:     *gasLimit,
		PollInterval: time.Duration(cfg.ReceiptPollSeconds) * time.Second,
		Timeout:      time.Duration(*receiptTimeout) * time.Second,
	}, log)

	result, err := deployer.Deploy(ctx, artifact.Bytecode, *poolAddress)
	if err != nil {
		var reverted *deploy.RevertedError
		if errors.As(err, &reverted) {
			log.Error().Str("tx_hash", reverted.TxHash).
				RawJSON("receipt", reverted.Receipt.Raw).Msg("deployment failed (tx reverted)")
			// reverted attempts get a journal row too, with succeeded false
			recordDeployment(ctx, cfg, log, revertedEntry(reverted, deployKey.Address()))
		} else {
			log.Error().Err(err).Msg("deployment failed")
		}
		os.Exit(1)
	}

	log.Info().Str("contract_address", result.ContractAddress).
		Str("tx_hash", result.TxHash).Msg("executor deployed")

	recordDeployment(ctx, cfg, log, minedEntry(result, deployKey.Address()))
}

func buildHeaders(cfg *config.Config, extra headerList) map[string]string {
	headers := map[string]string{}
	if cfg.NodiesAPIKey != "" {
		headers["x-api-key"] = cfg.NodiesAPIKey
	}
	for _, h := range extra {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers
}

func feeOverrides(cfg *config.Config, priorityGwei, maxGwei string) (fees.Overrides, error) {
	overrides := fees.Overrides{
		MaxPriorityFeeGwei: cfg.MaxPriorityFeeGwei,
		MaxFeeGwei:         cfg.MaxFeeGwei,
	}
	if priorityGwei != "" {
		d, err := decimal.NewFromString(priorityGwei)
		if err != nil {
			return overrides, fmt.Errorf("parse --max-priority-gwei: %w", err)
		}
		overrides.MaxPriorityFeeGwei = &d
	}
	if maxGwei != "" {
		d, err := decimal.NewFromString(maxGwei)
		if err != nil {
			return overrides, fmt.Errorf("parse --max-fee-gwei: %w", err)
		}
		overrides.MaxFeeGwei = &d
	}
	return overrides, nil
}

func loadArtifact(ctx context.Context, cfg *config.Config, artifactPath, sourcePath string) (*compiler.Artifact, error) {
	if artifactPath != "" {
		return compiler.LoadArtifact(artifactPath, cfg.Contract.Name)
	}
	return compiler.Compile(ctx, cfg.Contract.SolcPath, sourcePath, cfg.Contract.Name)
}

// recordDeployment writes the journal row when a journal database is
// configured. Journal trouble never changes the run's outcome.
func recordDeployment(ctx context.Context, cfg *config.Config, log zerolog.Logger, entry journal.Entry) {
	if !cfg.Journal.Enabled() {
		return
	}
	j, err := journal.New(ctx, cfg.Journal)
	if err != nil {
		log.Warn().Err(err).Msg("journal unavailable, deployment not recorded")
		return
	}
	defer j.Close(ctx)

	if err := j.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("failed to record deployment")
	}
}

func minedEntry(result *deploy.Result, deployer string) journal.Entry {
	return receiptEntry(result.ChainID, result.TxHash, deployer, result.Receipt, true)
}

func revertedEntry(reverted *deploy.RevertedError, deployer string) journal.Entry {
	return receiptEntry(reverted.ChainID, reverted.TxHash, deployer, reverted.Receipt, false)
}

func receiptEntry(chainID *big.Int, txHash, deployer string, rcpt *rpc.Receipt, succeeded bool) journal.Entry {
	entry := journal.Entry{
		TxHash:    txHash,
		Deployer:  deployer,
		Succeeded: succeeded,
	}
	if chainID != nil {
		entry.ChainID = chainID.Uint64()
	}
	// a reverted creation deploys nothing, so no contract address
	if succeeded {
		entry.ContractAddress = rcpt.ContractAddress
	}
	entry.GasUsed = hexToDecimal(rcpt.GasUsed)
	entry.EffectiveGasPrice = hexToDecimal(rcpt.EffectiveGasPrice)
	return entry
}

func hexToDecimal(quantity string) decimal.Decimal {
	h, err := data.NewHexFromString(quantity)
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(h.Int, 0)
}
