package fees

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Quote carries the fee fields of exactly one pricing model. GasPrice
// is set for legacy quotes, the other two for EIP-1559 quotes; the
// variants are never mixed.
type Quote struct {
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasPrice             *big.Int
}

func (q *Quote) IsEIP1559() bool {
	return q.GasPrice == nil
}

// Overrides are caller-supplied fee parameters in gwei. Fractional
// values are allowed, as fee CLIs commonly accept "0.5" gwei.
type Overrides struct {
	MaxPriorityFeeGwei *decimal.Decimal
	MaxFeeGwei         *decimal.Decimal
}

var weiPerGwei = decimal.NewFromInt(1_000_000_000)

// GweiToWei converts a gwei amount to wei, truncating below one wei.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Mul(weiPerGwei).BigInt()
}
