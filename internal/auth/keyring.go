package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/internal/common"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/store"
	"github.com/harsh-haria/unified-event-analytics-engine/model"
	"github.com/harsh-haria/unified-event-analytics-engine/params"
	"gorm.io/gorm"
)

// KeyInfo is one active key as listed to the owner. Key is the stored
// digest: the plaintext is handed out once at generation time and cannot be
// recovered afterwards.
type KeyInfo struct {
	Key    string `json:"key"`
	Expiry string `json:"expiry"`
}

// Keyring issues, validates, lists and revokes api keys.
type Keyring struct {
	keyRepo        KeyRepository
	cache          store.Store[KeyDetails]
	expirationDays int
}

// NewKeyring builds a Keyring. cache may be nil, in which case every
// validation hits the credential store.
func NewKeyring(keyRepo KeyRepository, cache store.Store[KeyDetails], expirationDays int) *Keyring {
	if expirationDays <= 0 {
		expirationDays = params.DefaultApiKeyExpirationDays
	}
	return &Keyring{
		keyRepo:        keyRepo,
		cache:          cache,
		expirationDays: expirationDays,
	}
}

// GenerateApiKey mints a key for appID and persists its digest. The returned
// plaintext has the form api_<appID>_<token> so it is self-describing, but
// the digest lookup, not the embedded id, is the authority for which
// application a presented key belongs to.
func (k *Keyring) GenerateApiKey(ctx context.Context, appID uint) (string, time.Time, error) {
	token, err := common.GenerateToken(params.ApiKeyTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	plaintext := fmt.Sprintf("api_%d_%s", appID, token)
	digest := common.Sha256Hex(plaintext)
	expiry := time.Now().UTC().AddDate(0, 0, k.expirationDays).Truncate(time.Second)

	key := model.ApiKey{
		AppID:  appID,
		ApiKey: digest,
		Expiry: expiry,
		Active: true,
	}
	if err := k.keyRepo.Create(ctx, &key); err != nil {
		return "", time.Time{}, err
	}
	return plaintext, expiry, nil
}

// ValidateApiKey resolves a presented plaintext key to its application and
// owner. Returns ErrKeyNotFound for unknown, revoked or expired keys.
func (k *Keyring) ValidateApiKey(ctx context.Context, plaintext string) (*KeyDetails, error) {
	digest := common.Sha256Hex(plaintext)

	if k.cache != nil {
		details, err := k.cache.Get(ctx, digest)
		if err == nil {
			if time.Now().After(details.Expiry) {
				k.evict(ctx, digest)
				return nil, ErrKeyNotFound
			}
			return &details, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("Api key cache lookup failed", "error", err)
		}
	}

	details, err := k.keyRepo.FirstDetails(ctx, digest)
	if err != nil {
		return nil, err
	}

	if k.cache != nil {
		if err := k.cache.Set(ctx, digest, *details, params.ApiKeyCacheExpiration); err != nil {
			slog.Warn("Api key cache store failed", "error", err)
		}
	}
	return details, nil
}

// ListActiveKeys returns the active, unexpired keys of appID.
func (k *Keyring) ListActiveKeys(ctx context.Context, appID uint) ([]KeyInfo, error) {
	keys, err := k.keyRepo.FindActive(ctx, appID)
	if err != nil {
		return nil, err
	}
	infos := make([]KeyInfo, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, KeyInfo{
			Key:    key.ApiKey,
			Expiry: key.Expiry.UTC().Format(params.MySQLDateTimeLayout),
		})
	}
	return infos, nil
}

// ResolveKeyApp resolves a plaintext key or digest to its binding without
// issuing or revoking anything. Used for the revoke ownership guard.
func (k *Keyring) ResolveKeyApp(ctx context.Context, keyOrDigest string) (*KeyDetails, error) {
	return k.keyRepo.FirstDetails(ctx, digestOf(keyOrDigest))
}

// RevokeApiKey deactivates a key. Accepts the plaintext or the stored
// digest. Revoking an unknown or already revoked key is a no-op.
func (k *Keyring) RevokeApiKey(ctx context.Context, keyOrDigest string) error {
	digest := digestOf(keyOrDigest)
	if _, err := k.keyRepo.Deactivate(ctx, digest); err != nil {
		return err
	}
	k.evict(ctx, digest)
	return nil
}

func (k *Keyring) evict(ctx context.Context, digest string) {
	if k.cache == nil {
		return
	}
	if err := k.cache.Delete(ctx, digest); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("Api key cache evict failed", "digest", digest[:8], "error", err)
	}
}

func (k *Keyring) WithTx(tx *gorm.DB) *Keyring {
	return &Keyring{
		keyRepo:        k.keyRepo.WithTx(tx),
		cache:          k.cache,
		expirationDays: k.expirationDays,
	}
}

// digestOf treats a 64-char lowercase hex value as an already hashed key and
// hashes anything else.
func digestOf(keyOrDigest string) string {
	if isHexDigest(keyOrDigest) {
		return keyOrDigest
	}
	return common.Sha256Hex(keyOrDigest)
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
