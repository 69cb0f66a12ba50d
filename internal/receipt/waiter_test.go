package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvalvo/executor-deployer/internal/rpc"
)

// scriptedReader returns each response in order, then repeats the last.
type scriptedReader struct {
	responses []func() (*rpc.Receipt, error)
	calls     int
}

func (s *scriptedReader) GetTransactionReceipt(ctx context.Context, txHash string) (*rpc.Receipt, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i]()
}

func notMined() (*rpc.Receipt, error) { return nil, nil }

func TestWaitReturnsReceipt(t *testing.T) {
	mined := &rpc.Receipt{Status: "0x1", TransactionHash: "0xabc"}
	reader := &scriptedReader{
		responses: []func() (*rpc.Receipt, error){
			notMined,
			notMined,
			func() (*rpc.Receipt, error) { return mined, nil },
		},
	}

	waiter := NewWaiter(reader, 10*time.Millisecond, time.Second, zerolog.Nop())
	got, err := waiter.Wait(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, mined, got)
	assert.Equal(t, 3, reader.calls, "must stop polling once the receipt arrives")
}

func TestWaitSwallowsPollErrors(t *testing.T) {
	mined := &rpc.Receipt{Status: "0x0", TransactionHash: "0xabc"}
	reader := &scriptedReader{
		responses: []func() (*rpc.Receipt, error){
			func() (*rpc.Receipt, error) { return nil, &rpc.TransportError{Status: 503} },
			func() (*rpc.Receipt, error) { return nil, &rpc.RPCError{Code: -32000, Message: "busy"} },
			func() (*rpc.Receipt, error) { return mined, nil },
		},
	}

	waiter := NewWaiter(reader, 10*time.Millisecond, time.Second, zerolog.Nop())
	got, err := waiter.Wait(context.Background(), "0xabc")
	require.NoError(t, err, "transient poll errors must not abort the wait")
	assert.Equal(t, mined, got)
}

func TestWaitTimesOut(t *testing.T) {
	reader := &scriptedReader{
		responses: []func() (*rpc.Receipt, error){notMined},
	}

	waiter := NewWaiter(reader, 20*time.Millisecond, 100*time.Millisecond, zerolog.Nop())

	started := time.Now()
	_, err := waiter.Wait(context.Background(), "0xdef")
	elapsed := time.Since(started)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "0xdef", timeoutErr.TxHash)
	assert.GreaterOrEqual(t, timeoutErr.Elapsed, 100*time.Millisecond)
	// one poll interval of slack on top of the deadline
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.GreaterOrEqual(t, reader.calls, 2)
}

func TestNewWaiterDefaults(t *testing.T) {
	waiter := NewWaiter(&scriptedReader{}, 0, 0, zerolog.Nop())
	assert.Equal(t, DefaultPollInterval, waiter.interval)
	assert.Equal(t, DefaultTimeout, waiter.timeout)
}
