package constants

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderUserAgent     = "User-Agent"

	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeyPrincipal = "principal"
	ContextKeySubject   = "subject"
	ContextKeyRequestID = "request_id"

	// Ceremony cookies carry the ceremony id between begin and complete.
	CookieRegistrationCeremony   = "PSK_REG_SEK"
	CookieAuthenticationCeremony = "PSK_AUTH_SEK"

	// Database table names
	TableIdentities          = "identities"
	TablePasswordCredentials = "password_credentials"
	TableGoogleLinks         = "google_links"
	TablePasskeyCredentials  = "passkey_credentials"

	// Redis key prefixes
	RedisPrefixChallenge = "webauthn:challenge:"
	RedisPrefixAAGUID    = "aaguid:"
	RedisPrefixRateLimit = "ratelimit:"

	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgUnauthenticated     = "unauthenticated"
	ErrMsgAuthenticationFail  = "authentication failed"
)
