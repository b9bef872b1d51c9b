package usecases

import (
	"context"
	"fmt"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/infrastructure/auth"
	"github.com/blink-inc/blink/internal/shared/biztime"
	"github.com/blink-inc/blink/internal/shared/logger"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(subject string, scopes []string) (*auth.IssuedToken, error)
}

type LoginWithPasswordCommand struct {
	Email    string
	Password string
}

type LoginWithPasswordResult struct {
	Identity *identity.Identity
	Token    *auth.IssuedToken
}

type LoginWithPasswordUseCase struct {
	resolver   *identity.Resolver
	identities identity.Repository
	hasher     identity.PasswordHasher
	tokens     TokenIssuer
	logger     logger.Interface
}

func NewLoginWithPasswordUseCase(
	resolver *identity.Resolver,
	identities identity.Repository,
	hasher identity.PasswordHasher,
	tokens TokenIssuer,
	logger logger.Interface,
) *LoginWithPasswordUseCase {
	return &LoginWithPasswordUseCase{
		resolver:   resolver,
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		logger:     logger,
	}
}

// Execute verifies the password and issues a session token. An unknown email,
// a missing password credential and a wrong password are indistinguishable.
func (uc *LoginWithPasswordUseCase) Execute(ctx context.Context, cmd LoginWithPasswordCommand) (*LoginWithPasswordResult, error) {
	found, err := uc.resolver.FindIdentity(ctx, identity.KindPassword, cmd.Email)
	if err != nil {
		uc.logger.Errorw("failed to resolve identity", "error", err)
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	if found == nil {
		return nil, identity.ErrInvalidCredentials
	}

	credential, err := uc.identities.FindPasswordCredential(ctx, found.SubjectID())
	if err != nil {
		uc.logger.Errorw("failed to load password credential", "subject", found.Subject(), "error", err)
		return nil, fmt.Errorf("failed to load password credential: %w", err)
	}
	if credential == nil {
		return nil, identity.ErrInvalidCredentials
	}

	if err := uc.hasher.Verify(cmd.Password, credential.Hash()); err != nil {
		uc.logger.Warnw("password login failed", "subject", found.Subject())
		return nil, identity.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(found.Subject(), found.Scopes())
	if err != nil {
		uc.logger.Errorw("failed to issue session token", "subject", found.Subject(), "error", err)
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	now := biztime.NowUTC()
	if err := uc.identities.TouchPasswordCredential(ctx, found.SubjectID(), now); err != nil {
		uc.logger.Warnw("failed to record password use", "subject", found.Subject(), "error", err)
	}
	if err := uc.identities.RecordLogin(ctx, found.SubjectID(), now); err != nil {
		uc.logger.Warnw("failed to record last login", "subject", found.Subject(), "error", err)
	}
	found.RecordLogin(now)

	uc.logger.Infow("identity logged in with password", "subject", found.Subject())
	return &LoginWithPasswordResult{Identity: found, Token: token}, nil
}
