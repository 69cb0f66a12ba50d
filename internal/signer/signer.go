package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nvalvo/executor-deployer/internal/data"
	"github.com/nvalvo/executor-deployer/internal/txbuild"
)

// Signer holds the deployer key and produces raw signed transactions.
type Signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// FromHexKey parses a secp256k1 private key, with or without a 0x
// prefix.
func FromHexKey(privHex string) (*Signer, error) {
	privHex = data.StripPrefix(strings.TrimSpace(privHex))
	key, err := crypto.HexToECDSA(privHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the checksummed deployer address.
func (s *Signer) Address() string {
	return s.addr.Hex()
}

// SignDeployment signs the contract-creation transaction and returns
// the 0x-prefixed raw bytes ready for eth_sendRawTransaction. The
// transaction type follows the fee quote: dynamic-fee for EIP-1559,
// legacy otherwise.
func (s *Signer) SignDeployment(tx *txbuild.UnsignedTx) (string, error) {
	calldata, err := hexutil.Decode(tx.Data)
	if err != nil {
		return "", fmt.Errorf("decode calldata: %w", err)
	}

	var inner types.TxData
	if tx.Fee.IsEIP1559() {
		inner = &types.DynamicFeeTx{
			ChainID:   tx.ChainID,
			Nonce:     tx.Nonce,
			GasTipCap: tx.Fee.MaxPriorityFeePerGas,
			GasFeeCap: tx.Fee.MaxFeePerGas,
			Gas:       tx.Gas,
			To:        nil, // contract creation
			Value:     big.NewInt(0),
			Data:      calldata,
		}
	} else {
		inner = &types.LegacyTx{
			Nonce:    tx.Nonce,
			GasPrice: tx.Fee.GasPrice,
			Gas:      tx.Gas,
			To:       nil,
			Value:    big.NewInt(0),
			Data:     calldata,
		}
	}

	signed, err := types.SignNewTx(s.key, types.LatestSignerForChainID(tx.ChainID), inner)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode signed tx: %w", err)
	}
	return hexutil.Encode(raw), nil
}
