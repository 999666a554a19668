package quote

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
)

const (
	tokenBytes = 32
	// DefaultTokenTTLDays applies when neither the caller nor config set a lifetime
	DefaultTokenTTLDays = 30
)

// HashToken returns the digest under which a token is stored
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenGateway issues and resolves the opaque tokens behind acceptance links.
// Only the SHA-256 digest of a token is persisted.
type TokenGateway struct {
	repo       quote.Repository
	defaultTTL int
	now        func() time.Time
	logger     *zap.Logger
}

// NewTokenGateway creates a TokenGateway. defaultTTLDays <= 0 falls back to 30.
func NewTokenGateway(repo quote.Repository, defaultTTLDays int, logger *zap.Logger) *TokenGateway {
	if defaultTTLDays <= 0 {
		defaultTTLDays = DefaultTokenTTLDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenGateway{
		repo:       repo,
		defaultTTL: defaultTTLDays,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the time source, for tests
func (g *TokenGateway) WithClock(now func() time.Time) *TokenGateway {
	g.now = now
	return g
}

// Now returns the gateway's current time
func (g *TokenGateway) Now() time.Time {
	return g.now()
}

// Issue creates a fresh token for the quote and moves it to sent. Issuing again
// while the quote is sent rotates the token; the previous link stops resolving.
func (g *TokenGateway) Issue(ctx context.Context, tenantID, quoteID uuid.UUID, ttlDays int) (string, time.Time, *quote.Quote, error) {
	if ttlDays <= 0 {
		ttlDays = g.defaultTTL
	}

	q, err := g.repo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	token, err := generateToken()
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("generate acceptance token: %w", err)
	}
	expiresAt := g.now().Add(time.Duration(ttlDays) * 24 * time.Hour)

	if err := q.IssueToken(HashToken(token), expiresAt); err != nil {
		return "", time.Time{}, nil, err
	}
	if err := g.repo.Save(ctx, q); err != nil {
		return "", time.Time{}, nil, err
	}

	g.logger.Info("acceptance token issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("quote_id", quoteID.String()),
		zap.Time("expires_at", expiresAt))

	return token, expiresAt, q, nil
}

// Resolve finds the quote behind a token and checks that it can still be
// accepted. It fails with ErrTokenNotFound, ErrTokenExpired or ErrAlreadyHandled;
// for the latter two the quote is returned alongside the error.
func (g *TokenGateway) Resolve(ctx context.Context, token string) (*quote.Quote, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.ErrTokenNotFound
	}

	q, err := g.repo.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrTokenNotFound
		}
		return nil, err
	}

	if err := q.CheckResolvable(g.now()); err != nil {
		return q, err
	}
	return q, nil
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
