package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/logger"
)

const defaultCatalogCacheSize = 512

// AuthenticatorCatalog resolves AAGUIDs against a table kept in Redis. The
// table only changes on reload, so hits are memoized in process.
type AuthenticatorCatalog struct {
	client *redis.Client
	prefix string
	local  *lru.Cache[string, *passkey.AuthenticatorMetadata]
	logger logger.Interface
}

var _ passkey.AuthenticatorCatalog = (*AuthenticatorCatalog)(nil)

func NewAuthenticatorCatalog(client *redis.Client, log logger.Interface) (*AuthenticatorCatalog, error) {
	local, err := lru.New[string, *passkey.AuthenticatorMetadata](defaultCatalogCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}
	return &AuthenticatorCatalog{
		client: client,
		prefix: constants.RedisPrefixAAGUID,
		local:  local,
		logger: log,
	}, nil
}

// Resolve returns nil, nil for unknown or malformed AAGUIDs.
func (c *AuthenticatorCatalog) Resolve(ctx context.Context, aaguid string) (*passkey.AuthenticatorMetadata, error) {
	id, err := uuid.Parse(aaguid)
	if err != nil {
		return nil, nil
	}
	key := id.String()

	if meta, ok := c.local.Get(key); ok {
		return meta, nil
	}

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read authenticator metadata: %w", err)
	}

	var meta passkey.AuthenticatorMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		c.logger.Warnw("discarding malformed authenticator metadata", "aaguid", key, "error", err)
		return nil, nil
	}
	meta.AAGUID = key

	c.local.Add(key, &meta)
	return &meta, nil
}

// Load replaces catalog entries from a combined AAGUID JSON document of the form
// {"<aaguid>": {"name": "...", "icon_light": "...", "icon_dark": "..."}}.
// It returns the number of entries written.
func (c *AuthenticatorCatalog) Load(ctx context.Context, r io.Reader) (int, error) {
	var table map[string]passkey.AuthenticatorMetadata
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return 0, fmt.Errorf("failed to decode AAGUID table: %w", err)
	}

	pipe := c.client.Pipeline()
	written := 0
	for raw, meta := range table {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil || meta.Name == "" {
			c.logger.Warnw("skipping invalid AAGUID entry", "aaguid", raw)
			continue
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return 0, fmt.Errorf("failed to encode metadata for %s: %w", id, err)
		}
		pipe.Set(ctx, c.prefix+id.String(), data, 0)
		written++
	}

	if written > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("failed to write AAGUID table: %w", err)
		}
	}

	c.local.Purge()
	c.logger.Infow("authenticator catalog loaded", "entries", written)
	return written, nil
}
