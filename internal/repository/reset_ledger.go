package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ResetLedger records consumed password reset tokens so each is honored once.
type ResetLedger interface {
	// Consume marks tokenID as used until expiresAt. It returns false when the token was already used.
	Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error)
}

type postgresResetLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresResetLedger stores consumed token ids in the used_reset_tokens table.
func NewPostgresResetLedger(pool *pgxpool.Pool) ResetLedger {
	return &postgresResetLedger{pool: pool}
}

func (l *postgresResetLedger) Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	const query = `
        INSERT INTO used_reset_tokens (token_id, expires_at)
        VALUES ($1, $2)
        ON CONFLICT (token_id) DO NOTHING`

	cmd, err := l.pool.Exec(ctx, query, tokenID, expiresAt)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, nil
	}

	// Rows past their expiry can no longer be replayed; prune opportunistically.
	_, _ = l.pool.Exec(ctx, `DELETE FROM used_reset_tokens WHERE expires_at < NOW()`)
	return true, nil
}

type redisResetLedger struct {
	client *redis.Client
	prefix string
}

// NewRedisResetLedger keeps consumed token ids as keys that expire with the token.
func NewRedisResetLedger(client *redis.Client) ResetLedger {
	return &redisResetLedger{client: client, prefix: "auth:reset:used:"}
}

func (l *redisResetLedger) Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	return l.client.SetNX(ctx, l.prefix+tokenID, 1, ttl).Result()
}
