package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository"
)

// ClaimWorkspace is the JWT claim carrying the workspace id.
const ClaimWorkspace = "workspace_id"

type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type UseCase struct {
	workspaces repository.WorkspaceRepository
	cache      repository.APIKeyCache
	tokens     TokenConfig
	logger     *zap.Logger
	now        func() time.Time
}

func New(workspaces repository.WorkspaceRepository, cache repository.APIKeyCache, tokens TokenConfig, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens.TTL <= 0 {
		tokens.TTL = time.Hour
	}
	return &UseCase{
		workspaces: workspaces,
		cache:      cache,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// ResolveAPIKey returns the active key record for key. Unknown and inactive keys are
// reported as ErrUnauthorized.
func (uc *UseCase) ResolveAPIKey(ctx context.Context, key string) (*domain.APIKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrUnauthorized
	}
	log := logger.WithRequestID(ctx, uc.logger)

	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, key)
		switch {
		case err == nil && cached.IsActive:
			return cached, nil
		case err != nil && !errors.Is(err, domain.ErrCacheMiss):
			log.Debug("api key cache read failed", zap.Error(err))
		}
	}

	record, err := uc.workspaces.GetAPIKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrAPIKeyNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !record.IsActive {
		return nil, domain.ErrUnauthorized
	}

	if uc.cache != nil {
		if err := uc.cache.Save(ctx, record); err != nil {
			log.Debug("api key cache write failed", zap.Error(err))
		}
	}
	return record, nil
}

// IssueToken exchanges a valid API key for a signed bearer token bound to its workspace.
func (uc *UseCase) IssueToken(ctx context.Context, key string) (*domain.AccessToken, error) {
	if uc.tokens.Secret == "" {
		return nil, domain.NewError(domain.ErrCodeForbidden, "token issuing is disabled")
	}
	record, err := uc.ResolveAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}

	issued := uc.now().UTC().Truncate(time.Second)
	expires := issued.Add(uc.tokens.TTL)
	claims := jwt.MapClaims{
		ClaimWorkspace: record.WorkspaceID,
		"sub":          record.ID,
		"iat":          issued.Unix(),
		"exp":          expires.Unix(),
	}
	if uc.tokens.Issuer != "" {
		claims["iss"] = uc.tokens.Issuer
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.tokens.Secret))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "sign token", err)
	}

	return &domain.AccessToken{
		Token:       signed,
		WorkspaceID: record.WorkspaceID,
		IssuedAt:    issued,
		ExpiresAt:   expires,
	}, nil
}

// ParseToken validates a bearer token and returns its workspace id.
func (uc *UseCase) ParseToken(token string) (string, error) {
	if uc.tokens.Secret == "" || token == "" {
		return "", domain.ErrUnauthorized
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(uc.tokens.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	if uc.tokens.Issuer != "" && !claims.VerifyIssuer(uc.tokens.Issuer, true) {
		return "", domain.ErrUnauthorized
	}
	workspaceID, _ := claims[ClaimWorkspace].(string)
	if workspaceID == "" {
		return "", domain.ErrUnauthorized
	}
	return workspaceID, nil
}
