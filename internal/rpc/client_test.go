package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, nil, zerolog.Nop())
}

func TestCallReturnsResult(t *testing.T) {
	var seen request
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x89"}`))
	})

	raw, err := client.Call(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x89"`, string(raw))

	assert.Equal(t, "2.0", seen.JSONRPC)
	assert.Equal(t, "eth_chainId", seen.Method)
	assert.NotNil(t, seen.Params, "empty params must marshal as [], not null")
}

func TestCallSendsHeaders(t *testing.T) {
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, map[string]string{"x-api-key": "sekrit"}, zerolog.Nop())
	_, err := client.Call(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, "sekrit", apiKey)
}

func TestCallRPCError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	})

	_, err := client.Call(context.Background(), "eth_maxPriorityFeePerGas")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Equal(t, "method not found", rpcErr.Message)
}

func TestCallTransportError(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Call(context.Background(), "eth_chainId")
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusBadGateway, transportErr.Status)
	})

	t.Run("non-2xx body drained, connection reused", func(t *testing.T) {
		var remoteAddrs []string
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			remoteAddrs = append(remoteAddrs, r.RemoteAddr)
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(strings.Repeat("upstream error ", 512)))
		})

		for i := 0; i < 2; i++ {
			_, err := client.Call(context.Background(), "eth_chainId")
			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
		}

		require.Len(t, remoteAddrs, 2)
		assert.Equal(t, remoteAddrs[0], remoteAddrs[1],
			"an undrained error body would force a fresh connection")
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewClient(server.URL, nil, zerolog.Nop())
		_, err := client.Call(context.Background(), "eth_chainId")
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Zero(t, transportErr.Status)
	})

	t.Run("transport and rpc errors stay distinct", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.Call(context.Background(), "eth_chainId")
		var rpcErr *RPCError
		assert.False(t, errors.As(err, &rpcErr))
	})
}

func TestGetTransactionReceiptNull(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	})

	receipt, err := client.GetTransactionReceipt(context.Background(), "0xabc")
	require.NoError(t, err, "null receipt means not yet mined, not an error")
	assert.Nil(t, receipt)
}

func TestGetTransactionReceiptDecodes(t *testing.T) {
	payload := `{"status":"0x1","contractAddress":"0x00000000000000000000000000000000000000aa","gasUsed":"0x186a0","transactionHash":"0xabc"}`
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + payload + `}`))
	})

	receipt, err := client.GetTransactionReceipt(context.Background(), "0xabc")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", receipt.ContractAddress)
	assert.JSONEq(t, payload, string(receipt.Raw))
}

func TestQuantityHelpers(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Method {
		case "eth_chainId":
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x89"}`))
		case "eth_getTransactionCount":
			assert.Equal(t, "pending", req.Params[1])
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x5"}`))
		case "eth_getBlockByNumber":
			assert.Equal(t, "latest", req.Params[0])
			assert.Equal(t, false, req.Params[1])
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"number":"0x10","baseFeePerGas":"0x3b9aca00"}}`))
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
	})

	ctx := context.Background()

	chainID, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(137), chainID.Uint64())

	nonce, err := client.PendingNonce(ctx, "0xdeployer")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce.Uint64())

	block, err := client.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0x3b9aca00", block.BaseFeePerGas)
}
