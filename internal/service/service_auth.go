package service

import (
	"context"
	"fmt"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/utils"
	"github.com/compvault/compvault/models"
)

// tokenService validates bearer tokens minted by the external identity
// provider. Token issuance itself happens outside this system; only the
// sign key and expected issuer are shared.
type tokenService struct {
	signKey string
	issuer  string
	logger  *logger.Logger
}

// NewTokenService constructs a [TokenParser] from the auth configuration.
func NewTokenService(cfg config.Auth, logger *logger.Logger) TokenParser {
	return &tokenService{
		signKey: cfg.TokenSignKey,
		issuer:  cfg.TokenIssuer,
		logger:  logger,
	}
}

// ParseToken verifies the signature, issuer, and expiry of tokenString and
// extracts the owning user. All failures map to [ErrAuthentication].
func (t *tokenService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	log := logger.FromContext(ctx)

	token, err := utils.ValidateAndParseJWTToken(tokenString, t.signKey, t.issuer)
	if err != nil {
		log.Debug().
			Str("func", "tokenService.ParseToken").
			Err(err).
			Msg("token validation failed")
		return models.Token{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return token, nil
}
