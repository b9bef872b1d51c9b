package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/shared/authorization"
	"github.com/blink-inc/blink/internal/shared/logger"
)

func newIdentity(t *testing.T, username, email string) *identity.Identity {
	t.Helper()
	id, err := identity.NewIdentity(username, email, authorization.RolesOf(authorization.RoleUser))
	require.NoError(t, err)
	return id
}

func TestIdentityRepository_CreateAndFind(t *testing.T) {
	repo := NewIdentityRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	alice := newIdentity(t, "alice", "alice@example.com")
	pw, err := identity.NewPasswordCredential(alice.SubjectID(), "$2a$04$hash", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, alice, pw))

	bySubject, err := repo.FindBySubject(ctx, alice.SubjectID())
	require.NoError(t, err)
	require.NotNil(t, bySubject)
	assert.Equal(t, "alice", bySubject.Username())
	assert.Equal(t, []string{authorization.ScopeUser}, bySubject.Scopes())

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alice.SubjectID(), byEmail.SubjectID())

	cred, err := repo.FindPasswordCredential(ctx, alice.SubjectID())
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "$2a$04$hash", cred.Hash())

	missing, err := repo.FindBySubject(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)

	noCred, err := repo.FindPasswordCredential(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, noCred)
}

func TestIdentityRepository_CreateDuplicateRollsBack(t *testing.T) {
	repo := NewIdentityRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity(t, "alice", "alice@example.com"), nil))

	dup := newIdentity(t, "alice2", "alice@example.com")
	pw, err := identity.NewPasswordCredential(dup.SubjectID(), "hash", time.Now())
	require.NoError(t, err)

	err = repo.Create(ctx, dup, pw)
	assert.ErrorIs(t, err, identity.ErrIdentityAlreadyExists)

	cred, err := repo.FindPasswordCredential(ctx, dup.SubjectID())
	require.NoError(t, err)
	assert.Nil(t, cred, "password row must not outlive a failed identity insert")
}

func TestIdentityRepository_PasswordUpdates(t *testing.T) {
	repo := NewIdentityRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	bob := newIdentity(t, "bob", "bob@example.com")
	pw, err := identity.NewPasswordCredential(bob.SubjectID(), "old", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, bob, pw))

	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdatePasswordHash(ctx, bob.SubjectID(), "new", at))
	require.NoError(t, repo.TouchPasswordCredential(ctx, bob.SubjectID(), at))

	cred, err := repo.FindPasswordCredential(ctx, bob.SubjectID())
	require.NoError(t, err)
	assert.Equal(t, "new", cred.Hash())
	require.NotNil(t, cred.LastUsedAt())

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, uuid.New(), "x", at), identity.ErrIdentityNotFound)
}

func TestIdentityRepository_GoogleLinkAndLogin(t *testing.T) {
	repo := NewIdentityRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	carol := newIdentity(t, "carol", "carol@example.com")
	require.NoError(t, repo.Create(ctx, carol, nil))
	require.NoError(t, repo.LinkGoogleAccount(ctx, "g-42", carol.SubjectID()))
	assert.ErrorIs(t, repo.LinkGoogleAccount(ctx, "g-42", uuid.New()), identity.ErrIdentityAlreadyExists)

	found, err := repo.FindByGoogleID(ctx, "g-42")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, carol.SubjectID(), found.SubjectID())

	none, err := repo.FindByGoogleID(ctx, "g-0")
	assert.NoError(t, err)
	assert.Nil(t, none)

	at := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordLogin(ctx, carol.SubjectID(), at))
	found, err = repo.FindBySubject(ctx, carol.SubjectID())
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt())
	assert.True(t, at.Equal(*found.LastLoginAt()))

	assert.ErrorIs(t, repo.RecordLogin(ctx, uuid.New(), at), identity.ErrIdentityNotFound)
}
