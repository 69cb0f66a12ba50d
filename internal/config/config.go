package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

// ErrMissingPrivateKey means no signing credential was configured.
// Deployment must fail on it before any network call.
var ErrMissingPrivateKey = errors.New("config: PRIVATE_KEY is required")

type Config struct {
	RPCURL     string `env:"RPC_URL,default=https://polygon-rpc.com"`
	PrivateKey string `env:"PRIVATE_KEY"`
	// Aave v3 Pool (proxy) passed to the executor's constructor
	PoolAddress  string `env:"AAVE_POOL_ADDRESS,default=0x794a61358D6845594F94dc1DB02A252b5b4814aD"`
	NodiesAPIKey string `env:"NODIES_API_KEY"`

	// Gas limit override in units; 0 means estimate. The fee fields
	// are noinit so that an absent env var stays nil instead of
	// becoming a zero-gwei override.
	GasLimit           uint64           `env:"GAS_LIMIT"`
	MaxPriorityFeeGwei *decimal.Decimal `env:"MAX_PRIORITY_FEE_GWEI, noinit"`
	MaxFeeGwei         *decimal.Decimal `env:"MAX_FEE_GWEI, noinit"`

	ReceiptPollSeconds    uint64 `env:"RECEIPT_POLL_SECONDS,default=3"`
	ReceiptTimeoutSeconds uint64 `env:"RECEIPT_TIMEOUT_SECONDS,default=300"`

	LogFormat string `env:"LOG_FORMAT,default=console"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`

	Contract ContractConfig
	Journal  JournalConfig
}

type ContractConfig struct {
	SourcePath string `env:"CONTRACT_SOURCE,default=contracts/LiquidationExecutor.sol"`
	Name       string `env:"CONTRACT_NAME,default=LiquidationExecutor"`
	SolcPath   string `env:"SOLC_PATH,default=solc"`
	// Precompiled artifact; when set, solc is never invoked
	ArtifactPath string `env:"CONTRACT_ARTIFACT"`
}

// JournalConfig is optional: the journal is used only when a database
// name is configured.
type JournalConfig struct {
	Username string `env:"JOURNAL_DB_USERNAME"`
	Password string `env:"JOURNAL_DB_PASSWORD"`
	Name     string `env:"JOURNAL_DB_NAME"`
	Host     string `env:"JOURNAL_DB_HOST,default=localhost"`
	Port     uint16 `env:"JOURNAL_DB_PORT,default=5432"`
}

func (jc JournalConfig) Enabled() bool {
	return jc.Name != ""
}

func (jc JournalConfig) String() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?connect_timeout=5", jc.Username, jc.Password, jc.Host, jc.Port, jc.Name)
}

func New(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return &cfg, nil
}
