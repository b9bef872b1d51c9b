package ceremony

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/descope/virtualwebauthn"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/auth"
	"github.com/blink-inc/blink/internal/infrastructure/cache"
	"github.com/blink-inc/blink/internal/infrastructure/database"
	"github.com/blink-inc/blink/internal/infrastructure/repository"
	"github.com/blink-inc/blink/internal/shared/authorization"
	"github.com/blink-inc/blink/internal/shared/config"
	"github.com/blink-inc/blink/internal/shared/logger"
)

var testRP = virtualwebauthn.RelyingParty{
	Name:   "Blink",
	ID:     "blink.example",
	Origin: "https://blink.example",
}

type stubCatalog struct {
	known bool
	err   error
}

func (s *stubCatalog) Resolve(_ context.Context, aaguid string) (*passkey.AuthenticatorMetadata, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.known {
		return nil, nil
	}
	return &passkey.AuthenticatorMetadata{AAGUID: aaguid, Name: "Virtual Authenticator"}, nil
}

type testEnv struct {
	manager    *Manager
	verifier   *auth.WebAuthnService
	identities *repository.IdentityRepository
	passkeys   *repository.PasskeyCredentialRepository
	challenges *cache.MemoryChallengeStore
	issuer     *auth.SessionIssuer
	catalog    *stubCatalog
}

func newTestEnv(t *testing.T, storeOpts ...cache.ChallengeStoreOption) *testEnv {
	t.Helper()
	log := logger.NewNop()

	gdb, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Database: ":memory:"}, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gdb))
	t.Cleanup(func() { _ = database.Close(gdb) })

	verifier, err := auth.NewWebAuthnService(config.WebAuthnConfig{
		RPID:      testRP.ID,
		RPName:    testRP.Name,
		RPOrigins: []string{testRP.Origin},
	})
	require.NoError(t, err)

	issuer, err := auth.NewSessionIssuer(config.JWTConfig{
		Secret:   "ceremony-test-secret",
		Issuer:   "blink",
		ExpDays:  35,
		Audience: []string{authorization.ScopeUser, authorization.ScopeAdmin},
	})
	require.NoError(t, err)

	env := &testEnv{
		identities: repository.NewIdentityRepository(gdb, log),
		passkeys:   repository.NewPasskeyCredentialRepository(gdb, log),
		challenges: cache.NewMemoryChallengeStore(cache.DefaultChallengeTTL, storeOpts...),
		issuer:     issuer,
		catalog:    &stubCatalog{known: true},
		verifier:   verifier,
	}
	env.withManagerOptions()
	return env
}

func (e *testEnv) withManagerOptions(opts ...ManagerOption) {
	e.manager = NewManager(e.verifier, e.challenges, e.passkeys, e.identities, e.catalog, e.issuer, logger.NewNop(), opts...)
}

func (e *testEnv) createIdentity(t *testing.T, username string) *identity.Identity {
	t.Helper()
	i, err := identity.NewIdentity(username, username+"@example.com", authorization.RolesOf(authorization.RoleUser))
	require.NoError(t, err)
	require.NoError(t, e.identities.Create(context.Background(), i, nil))
	return i
}

// attest runs the authenticator side of a registration ceremony.
func attest(t *testing.T, rp virtualwebauthn.RelyingParty, cred virtualwebauthn.Credential, options *protocol.CredentialCreation) *protocol.ParsedCredentialCreationData {
	t.Helper()
	optionsJSON, err := json.Marshal(options.Response)
	require.NoError(t, err)
	parsedOptions, err := virtualwebauthn.ParseAttestationOptions(string(optionsJSON))
	require.NoError(t, err)

	attestation := virtualwebauthn.CreateAttestationResponse(rp, virtualwebauthn.NewAuthenticator(), cred, *parsedOptions)

	var ccr protocol.CredentialCreationResponse
	require.NoError(t, json.Unmarshal([]byte(attestation), &ccr))
	parsed, err := ccr.Parse()
	require.NoError(t, err)
	return parsed
}

// assertion runs the authenticator side of a discoverable login.
func assertion(t *testing.T, owner *identity.Identity, cred virtualwebauthn.Credential, options *protocol.CredentialAssertion) *protocol.ParsedCredentialAssertionData {
	t.Helper()
	optionsJSON, err := json.Marshal(options.Response)
	require.NoError(t, err)
	parsedOptions, err := virtualwebauthn.ParseAssertionOptions(string(optionsJSON))
	require.NoError(t, err)

	authenticator := virtualwebauthn.NewAuthenticatorWithOptions(virtualwebauthn.AuthenticatorOptions{
		UserHandle: userHandle(owner),
	})
	authenticator.AddCredential(cred)

	response := virtualwebauthn.CreateAssertionResponse(testRP, authenticator, cred, *parsedOptions)

	var car protocol.CredentialAssertionResponse
	require.NoError(t, json.Unmarshal([]byte(response), &car))
	parsed, err := car.Parse()
	require.NoError(t, err)
	return parsed
}

func (e *testEnv) register(t *testing.T, owner *identity.Identity, cred virtualwebauthn.Credential) *passkey.Credential {
	t.Helper()
	ctx := context.Background()

	ceremonyID, options, err := e.manager.BeginRegistration(ctx, owner)
	require.NoError(t, err)

	stored, err := e.manager.CompleteRegistration(ctx, ceremonyID, attest(t, testRP, cred, options), owner, "")
	require.NoError(t, err)
	return stored
}

func (e *testEnv) login(t *testing.T, owner *identity.Identity, cred virtualwebauthn.Credential) (*AuthenticationResult, error) {
	t.Helper()
	ctx := context.Background()

	ceremonyID, options, err := e.manager.BeginAuthentication(ctx)
	require.NoError(t, err)
	return e.manager.CompleteAuthentication(ctx, ceremonyID, assertion(t, owner, cred, options))
}

func (e *testEnv) storedCount(t *testing.T, credentialID []byte) uint32 {
	t.Helper()
	c, err := e.passkeys.FindByCredentialID(context.Background(), credentialID)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c.SignCount()
}

func TestManager_RegistrationAndLogin(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	stored := env.register(t, owner, cred)
	assert.Equal(t, cred.ID, stored.CredentialID())
	assert.Equal(t, owner.SubjectID(), stored.OwnerSubjectID())
	assert.Equal(t, "Virtual Authenticator", stored.DisplayName())
	assert.Regexp(t, `^pk_`, stored.SID())

	result, err := env.login(t, owner, cred)
	require.NoError(t, err)
	assert.Equal(t, owner.Subject(), result.Subject)
	assert.Equal(t, []string{authorization.ScopeUser}, result.Scopes)

	claims, err := env.issuer.Validate(result.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, owner.Subject(), claims.Subject)
	assert.Equal(t, []string{authorization.ScopeUser}, claims.Scopes)

	reloaded, err := env.identities.FindBySubject(context.Background(), owner.SubjectID())
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt())

	used, err := env.passkeys.FindByCredentialID(context.Background(), cred.ID)
	require.NoError(t, err)
	assert.NotNil(t, used.LastUsedAt())
}

func TestManager_RegistrationKeepsRequestedName(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	ctx := context.Background()

	ceremonyID, options, err := env.manager.BeginRegistration(ctx, owner)
	require.NoError(t, err)

	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	stored, err := env.manager.CompleteRegistration(ctx, ceremonyID, attest(t, testRP, cred, options), owner, "Work laptop")
	require.NoError(t, err)
	assert.Equal(t, "Work laptop", stored.DisplayName())
}

func TestManager_BeginRegistrationExcludesExisting(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	env.register(t, owner, cred)

	_, options, err := env.manager.BeginRegistration(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, options.Response.CredentialExcludeList, 1)
	assert.Equal(t, protocol.URLEncodedBase64(cred.ID), options.Response.CredentialExcludeList[0].CredentialID)
	assert.Equal(t, protocol.VerificationRequired, options.Response.AuthenticatorSelection.UserVerification)
	assert.Equal(t, protocol.ResidentKeyRequirementPreferred, options.Response.AuthenticatorSelection.ResidentKey)
}

func TestManager_ForgedOriginConsumesCeremony(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	ctx := context.Background()

	ceremonyID, options, err := env.manager.BeginRegistration(ctx, owner)
	require.NoError(t, err)

	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	forged := testRP
	forged.Origin = "https://evil.example"

	_, err = env.manager.CompleteRegistration(ctx, ceremonyID, attest(t, forged, cred, options), owner, "")
	assert.ErrorIs(t, err, passkey.ErrAttestationInvalid)

	_, err = env.manager.CompleteRegistration(ctx, ceremonyID, attest(t, testRP, cred, options), owner, "")
	assert.ErrorIs(t, err, passkey.ErrCeremonyNotFound)

	creds, err := env.passkeys.FindAllForIdentity(ctx, owner.SubjectID())
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestManager_RegistrationByAnotherIdentity(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createIdentity(t, "alice")
	mallory := env.createIdentity(t, "mallory")
	ctx := context.Background()

	ceremonyID, options, err := env.manager.BeginRegistration(ctx, alice)
	require.NoError(t, err)

	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	_, err = env.manager.CompleteRegistration(ctx, ceremonyID, attest(t, testRP, cred, options), mallory, "")
	assert.ErrorIs(t, err, passkey.ErrAttestationInvalid)
}

func TestManager_UnknownAuthenticator(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.known = false
	owner := env.createIdentity(t, "alice")
	ctx := context.Background()

	ceremonyID, options, err := env.manager.BeginRegistration(ctx, owner)
	require.NoError(t, err)

	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	_, err = env.manager.CompleteRegistration(ctx, ceremonyID, attest(t, testRP, cred, options), owner, "")
	assert.ErrorIs(t, err, passkey.ErrUnknownAuthenticator)
}

func TestManager_CatalogFailureIsUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.err = errors.New("redis: connection refused")
	owner := env.createIdentity(t, "alice")
	ctx := context.Background()

	ceremonyID, options, err := env.manager.BeginRegistration(ctx, owner)
	require.NoError(t, err)

	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	_, err = env.manager.CompleteRegistration(ctx, ceremonyID, attest(t, testRP, cred, options), owner, "")
	assert.ErrorIs(t, err, passkey.ErrCeremonyUnavailable)
	assert.NotContains(t, err.Error(), "passkey_credentials")
}

func TestManager_DuplicateCredential(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createIdentity(t, "alice")
	bob := env.createIdentity(t, "bob")
	ctx := context.Background()

	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	env.register(t, alice, cred)

	ceremonyID, options, err := env.manager.BeginRegistration(ctx, bob)
	require.NoError(t, err)
	_, err = env.manager.CompleteRegistration(ctx, ceremonyID, attest(t, testRP, cred, options), bob, "")
	assert.ErrorIs(t, err, passkey.ErrCredentialAlreadyRegistered)
}

func TestManager_WrongCeremonyKind(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	ctx := context.Background()

	authID, _, err := env.manager.BeginAuthentication(ctx)
	require.NoError(t, err)
	_, options, err := env.manager.BeginRegistration(ctx, owner)
	require.NoError(t, err)

	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	_, err = env.manager.CompleteRegistration(ctx, authID, attest(t, testRP, cred, options), owner, "")
	assert.ErrorIs(t, err, passkey.ErrCeremonyNotFound)
}

func TestManager_UnknownCredential(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")

	_, err := env.login(t, owner, virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2))
	assert.ErrorIs(t, err, passkey.ErrCredentialNotFound)
}

func TestManager_ZeroCounterRepeats(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	env.register(t, owner, cred)

	for range 3 {
		_, err := env.login(t, owner, cred)
		require.NoError(t, err)
	}
	assert.Equal(t, uint32(0), env.storedCount(t, cred.ID))
}

func TestManager_CounterMustAdvance(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	env.register(t, owner, cred)

	cred.Counter = 5
	_, err := env.login(t, owner, cred)
	require.NoError(t, err)
	require.Equal(t, uint32(5), env.storedCount(t, cred.ID))

	for _, reported := range []uint32{5, 3, 0} {
		cred.Counter = reported
		_, err := env.login(t, owner, cred)
		assert.ErrorIs(t, err, passkey.ErrPossibleCloneOrReplay, "reported %d", reported)
		assert.Equal(t, uint32(5), env.storedCount(t, cred.ID))
	}

	cred.Counter = 6
	_, err = env.login(t, owner, cred)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), env.storedCount(t, cred.ID))
}

// lostUpdateRepository simulates a concurrent login advancing the counter
// between the read and the conditional update.
type lostUpdateRepository struct {
	passkey.Repository
}

func (r *lostUpdateRepository) UpdateCounterAndLastUsed(context.Context, []byte, uint32, uint32, time.Time) error {
	return passkey.ErrPossibleCloneOrReplay
}

func TestManager_ConditionalUpdateLost(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	env.register(t, owner, cred)

	env.manager.passkeys = &lostUpdateRepository{Repository: env.passkeys}

	cred.Counter = 1
	_, err := env.login(t, owner, cred)
	assert.ErrorIs(t, err, passkey.ErrPossibleCloneOrReplay)
}

func TestManager_ReplayedAssertion(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	env.register(t, owner, cred)
	ctx := context.Background()

	ceremonyID, options, err := env.manager.BeginAuthentication(ctx)
	require.NoError(t, err)
	cred.Counter = 1
	response := assertion(t, owner, cred, options)

	_, err = env.manager.CompleteAuthentication(ctx, ceremonyID, response)
	require.NoError(t, err)

	_, err = env.manager.CompleteAuthentication(ctx, ceremonyID, response)
	assert.ErrorIs(t, err, passkey.ErrCeremonyNotFound)
}

func TestManager_ConcurrentCompletion(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	env.register(t, owner, cred)
	ctx := context.Background()

	ceremonyID, options, err := env.manager.BeginAuthentication(ctx)
	require.NoError(t, err)
	cred.Counter = 1
	response := assertion(t, owner, cred, options)

	var tokens, notFound atomic.Int32
	var g errgroup.Group
	for range 2 {
		g.Go(func() error {
			result, err := env.manager.CompleteAuthentication(ctx, ceremonyID, response)
			switch {
			case err == nil && result.Token != nil:
				tokens.Add(1)
			case errors.Is(err, passkey.ErrCeremonyNotFound):
				notFound.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), tokens.Load())
	assert.Equal(t, int32(1), notFound.Load())
}

func TestManager_RetriesDuplicateCeremonyID(t *testing.T) {
	ids := []string{"fixed", "fixed", "fresh"}
	var calls atomic.Int32
	env := newTestEnv(t, cache.WithIDGenerator(func() string {
		return ids[int(calls.Add(1))-1]
	}))
	ctx := context.Background()

	first, _, err := env.manager.BeginAuthentication(ctx)
	require.NoError(t, err)
	second, _, err := env.manager.BeginAuthentication(ctx)
	require.NoError(t, err)

	assert.Equal(t, "fixed", first)
	assert.Equal(t, "fresh", second)
	assert.Equal(t, int32(3), calls.Load())
}

type failingStore struct{}

func (failingStore) Put(context.Context, []byte) (string, error) {
	return "", errors.New("dial tcp 10.0.0.7:6379: connection refused")
}

func (failingStore) TakeAndDelete(context.Context, string) ([]byte, error) {
	return nil, errors.New("dial tcp 10.0.0.7:6379: connection refused")
}

func (failingStore) TTL() time.Duration { return time.Minute }

func TestManager_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.manager.challenges = failingStore{}
	ctx := context.Background()

	_, _, err := env.manager.BeginAuthentication(ctx)
	assert.ErrorIs(t, err, passkey.ErrCeremonyUnavailable)

	owner := env.createIdentity(t, "alice")
	_, err = env.manager.CompleteRegistration(ctx, uuid.NewString(), &protocol.ParsedCredentialCreationData{}, owner, "")
	assert.ErrorIs(t, err, passkey.ErrCeremonyUnavailable)
}

func TestManager_MissingCeremony(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createIdentity(t, "alice")

	_, err := env.manager.CompleteRegistration(context.Background(), uuid.NewString(), &protocol.ParsedCredentialCreationData{}, owner, "")
	assert.ErrorIs(t, err, passkey.ErrCeremonyNotFound)

	_, err = env.manager.CompleteRegistration(context.Background(), "", nil, owner, "")
	assert.ErrorIs(t, err, passkey.ErrCeremonyNotFound)
}

func TestManager_ClockAndSIDGenerator(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	env.withManagerOptions(
		WithClock(func() time.Time { return at }),
		WithSIDGenerator(func() (string, error) { return "pk_fixed000001", nil }),
	)
	owner := env.createIdentity(t, "grace")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	stored := env.register(t, owner, cred)
	assert.Equal(t, "pk_fixed000001", stored.SID())

	_, err := env.login(t, owner, cred)
	require.NoError(t, err)

	used, err := env.passkeys.FindBySID(context.Background(), "pk_fixed000001")
	require.NoError(t, err)
	require.NotNil(t, used.LastUsedAt())
	assert.WithinDuration(t, at, *used.LastUsedAt(), time.Second)

	reloaded, err := env.identities.FindBySubject(context.Background(), owner.SubjectID())
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt())
	assert.WithinDuration(t, at, *reloaded.LastLoginAt(), time.Second)
}

func TestManager_SIDGeneratorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.withManagerOptions(WithSIDGenerator(func() (string, error) {
		return "", errors.New("entropy exhausted")
	}))
	owner := env.createIdentity(t, "heidi")
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	ceremonyID, options, err := env.manager.BeginRegistration(context.Background(), owner)
	require.NoError(t, err)
	_, err = env.manager.CompleteRegistration(context.Background(), ceremonyID, attest(t, testRP, cred, options), owner, "")
	require.Error(t, err)

	list, err := env.passkeys.FindAllForIdentity(context.Background(), owner.SubjectID())
	require.NoError(t, err)
	assert.Empty(t, list)
}
