package data

import (
	"fmt"

	"math/big"
)

// Hex is a JSON-RPC quantity: a big integer rendered as 0x-prefixed
// minimal hex.
type Hex struct{ *big.Int }

func NewHexFromString(hex string) (*Hex, error) {
	bi := new(big.Int)
	bi, ok := bi.SetString(StripPrefix(hex), 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex string: %s", hex)
	}
	return &Hex{bi}, nil
}

func NewHexFromUint64(v uint64) *Hex {
	return &Hex{new(big.Int).SetUint64(v)}
}

func NewHexFromBig(v *big.Int) *Hex {
	return &Hex{new(big.Int).Set(v)}
}

func (h Hex) String() string {
	if h.Int == nil {
		return "0x0"
	}
	return fmt.Sprintf("0x%s", h.Text(16))
}

func (h Hex) Uint64() uint64 {
	if h.Int == nil {
		return 0
	}
	return h.Int.Uint64()
}
