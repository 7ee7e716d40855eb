package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockward/internal/core/apperror"
	"stockward/internal/core/id"
	"stockward/internal/domain/auth"
	"stockward/internal/infrastructure/storage/postgres"
)

// TokenRepo implements auth.TokenRepository. Tokens are looked up only
// by hash; the raw value never reaches this layer.
type TokenRepo struct {
	txManager *postgres.TxManager
}

func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{txManager: txManager}
}

func (r *TokenRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// SaveRefreshToken stores a hashed refresh token. An empty IP address
// is stored as NULL; the column is inet.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::inet)`

	_, err := r.querier(ctx).Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt,
		token.CreatedAt, token.UserAgent, token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken finds a token by its SHA-256 hash. Revoked and
// expired tokens are still returned; validity is the caller's call.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	const query = `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at,
		       COALESCE(revoked_reason, '') AS revoked_reason
		FROM refresh_tokens WHERE token_hash = $1`

	var token auth.RefreshToken
	if err := pgxscan.Get(ctx, r.querier(ctx), &token, query, tokenHash); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("token", "")
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken marks one token revoked. Already-revoked tokens
// keep their original revocation record.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	const query = `
		UPDATE refresh_tokens SET revoked_at = now(), revoked_reason = $2
		WHERE id = $1 AND revoked_at IS NULL`

	if _, err := r.querier(ctx).Exec(ctx, query, tokenID, reason); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes every live token of one user, used on
// logout, role change and account disable.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	const query = `
		UPDATE refresh_tokens SET revoked_at = now(), revoked_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, reason); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens deletes tokens past their expiry and tokens
// revoked more than a week ago, returning the number removed. Meant
// for a periodic maintenance job.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context) (int, error) {
	const query = `
		DELETE FROM refresh_tokens
		WHERE expires_at < now() OR revoked_at < now() - INTERVAL '7 days'`

	result, err := r.querier(ctx).Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return int(result.RowsAffected()), nil
}

var _ auth.TokenRepository = (*TokenRepo)(nil)
