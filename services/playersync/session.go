package playersync

import "strings"

// SessionProvider supplies the bearer token for progress and catalogue
// calls. It is injected rather than read from ambient storage so the
// controller is testable without a real token store.
type SessionProvider interface {
	Token() (string, bool)
}

// StaticToken is a fixed-token provider.
type StaticToken string

func (t StaticToken) Token() (string, bool) {
	s := strings.TrimSpace(string(t))
	return s, s != ""
}

// KV is the minimal key/value surface a token storage backend must offer.
type KV interface {
	Get(key string) (string, bool)
}

// DefaultTokenKeys is the lookup order used when no explicit key list is
// given. Older deployments stored the token under different names; the
// first non-empty hit wins.
var DefaultTokenKeys = []string{"reelhouse.token", "authToken", "jwt"}

// StorageSession reads the session token from a key/value storage using a
// defined candidate-key order.
type StorageSession struct {
	storage KV
	keys    []string
}

// NewStorageSession creates a provider over the given storage. With no keys
// the default lookup order applies.
func NewStorageSession(storage KV, keys ...string) *StorageSession {
	if len(keys) == 0 {
		keys = DefaultTokenKeys
	}
	return &StorageSession{storage: storage, keys: keys}
}

func (s *StorageSession) Token() (string, bool) {
	if s == nil || s.storage == nil {
		return "", false
	}
	for _, key := range s.keys {
		if v, ok := s.storage.Get(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
