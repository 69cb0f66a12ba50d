package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

type Entry struct {
	TxHash            string          `db:"tx_hash" json:"txHash"` // Primary key
	ChainID           uint64          `db:"chain_id" json:"chainId"`
	Deployer          string          `db:"deployer" json:"deployer"`
	ContractAddress   string          `db:"contract_address" json:"contractAddress"`
	Succeeded         bool            `db:"succeeded" json:"succeeded"`
	GasUsed           decimal.Decimal `db:"gas_used" json:"gasUsed"`
	EffectiveGasPrice decimal.Decimal `db:"effective_gas_price" json:"effectiveGasPrice"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}
