package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nvalvo/executor-deployer/internal/config"
)

// Client records deployment attempts in Postgres. The journal is
// optional tooling; the deployer works without it.
type Client struct {
	Conn *pgx.Conn
}

func New(ctx context.Context, c config.JournalConfig) (*Client, error) {
	conn, err := pgx.Connect(ctx, c.String())
	if err != nil {
		return nil, err
	}

	return &Client{
		Conn: conn,
	}, nil
}

func (j *Client) Close(ctx context.Context) error {
	return j.Conn.Close(ctx)
}

func (j *Client) Ping(ctx context.Context) error {
	return j.Conn.Ping(ctx)
}

func (j *Client) CreateSchema(ctx context.Context) error {
	_, err := j.Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS deployments (
			tx_hash             TEXT PRIMARY KEY,
			chain_id            BIGINT NOT NULL,
			deployer            TEXT NOT NULL,
			contract_address    TEXT,
			succeeded           BOOLEAN NOT NULL,
			gas_used            NUMERIC,
			effective_gas_price NUMERIC,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create deployments table: %w", err)
	}
	return nil
}

func (j *Client) Record(ctx context.Context, e Entry) error {
	_, err := j.Conn.Exec(ctx, `
		INSERT INTO deployments
			(tx_hash, chain_id, deployer, contract_address, succeeded, gas_used, effective_gas_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tx_hash) DO NOTHING`,
		e.TxHash, e.ChainID, e.Deployer, e.ContractAddress, e.Succeeded, e.GasUsed, e.EffectiveGasPrice)
	if err != nil {
		return fmt.Errorf("record deployment %s: %w", e.TxHash, err)
	}
	return nil
}
