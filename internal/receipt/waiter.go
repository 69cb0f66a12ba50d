package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/nvalvo/executor-deployer/internal/rpc"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultTimeout      = 300 * time.Second
)

// TimeoutError means no receipt appeared before the deadline. The
// transaction may still be mined later; the hash stays valid.
type TimeoutError struct {
	TxHash  string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for receipt of %s", e.Elapsed.Round(time.Second), e.TxHash)
}

var errNotMined = errors.New("transaction not yet mined")

type receiptReader interface {
	GetTransactionReceipt(ctx context.Context, txHash string) (*rpc.Receipt, error)
}

type Waiter struct {
	client   receiptReader
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewWaiter builds a receipt waiter. Zero interval or timeout select
// the defaults (3s poll, 300s deadline).
func NewWaiter(client receiptReader, interval, timeout time.Duration, logger zerolog.Logger) *Waiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Waiter{
		client:   client,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "receipt_waiter").Logger(),
	}
}

// Wait polls for the mined receipt until the deadline. A null result
// and transient poll errors both just schedule the next poll; only the
// deadline ends the wait. Returns as soon as any receipt arrives, with
// no extra confirmations.
func (w *Waiter) Wait(ctx context.Context, txHash string) (*rpc.Receipt, error) {
	started := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var mined *rpc.Receipt
	err := retry.Do(
		func() error {
			r, err := w.client.GetTransactionReceipt(pollCtx, txHash)
			if err != nil {
				// transient node trouble must not abort the wait
				w.logger.Debug().Err(err).Msg("receipt poll failed, will retry")
				return err
			}
			if r == nil {
				return errNotMined
			}
			mined = r
			return nil
		},
		retry.Context(pollCtx),
		retry.Attempts(0),
		retry.Delay(w.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, &TimeoutError{TxHash: txHash, Elapsed: time.Since(started)}
	}
	return mined, nil
}
