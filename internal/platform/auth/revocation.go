package auth

import (
	"sync"
	"time"
)

// revocationEntry stores metadata about a revoked JWT token.
type revocationEntry struct {
	ExpiresAt time.Time
	UserID    string
}

// TokenRevocationStore tracks revoked tokens in memory. Single tokens are
// revoked by jti (logout); all of a user's tokens are revoked with a cutoff
// time (account deactivated or deleted). Entries are dropped once the tokens
// they cover can no longer be valid.
type TokenRevocationStore struct {
	mu        sync.RWMutex
	entries   map[string]revocationEntry // jti -> entry
	cutoffs   map[string]time.Time       // userID -> tokens issued at or before are revoked
	cutoffTTL time.Duration
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// NewTokenRevocationStore creates a store whose user cutoffs are kept for
// tokenTTL, the longest lifetime of an issued token. A background goroutine
// removes stale entries every 5 minutes.
func NewTokenRevocationStore(tokenTTL time.Duration) *TokenRevocationStore {
	s := &TokenRevocationStore{
		entries:   make(map[string]revocationEntry),
		cutoffs:   make(map[string]time.Time),
		cutoffTTL: tokenTTL,
		now:       time.Now,
		done:      make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Revoke adds a token's jti until expiresAt, its natural expiry.
func (s *TokenRevocationStore) Revoke(jti string, expiresAt time.Time) {
	s.RevokeForUser(jti, "", expiresAt)
}

// RevokeForUser is Revoke recording the token's owner.
func (s *TokenRevocationStore) RevokeForUser(jti, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[jti] = revocationEntry{ExpiresAt: expiresAt, UserID: userID}
}

// IsRevoked checks if a token jti has been revoked.
func (s *TokenRevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[jti]
	return ok
}

// RevokeAllForUser revokes every token issued to userID up to now.
func (s *TokenRevocationStore) RevokeAllForUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cutoffs[userID] = s.now()
}

// IsRevokedFor reports whether a token of userID issued at issuedAt falls
// under a RevokeAllForUser cutoff.
func (s *TokenRevocationStore) IsRevokedFor(userID string, issuedAt time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff, ok := s.cutoffs[userID]
	return ok && !issuedAt.After(cutoff)
}

// Count returns the number of currently revoked tokens.
func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Entries returns a snapshot of all current revocation entries.
func (s *TokenRevocationStore) Entries() []RevocationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]RevocationInfo, 0, len(s.entries))
	for jti, entry := range s.entries {
		result = append(result, RevocationInfo{
			JTI:       jti,
			UserID:    entry.UserID,
			ExpiresAt: entry.ExpiresAt,
		})
	}
	return result
}

// RevocationInfo is a public representation of a revocation entry.
type RevocationInfo struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Close stops the background cleanup goroutine. Safe to call more than once.
func (s *TokenRevocationStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *TokenRevocationStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup drops jti entries past their expiry and user cutoffs older than
// the token lifetime.
func (s *TokenRevocationStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, jti)
		}
	}
	for userID, cutoff := range s.cutoffs {
		if now.Sub(cutoff) > s.cutoffTTL {
			delete(s.cutoffs, userID)
		}
	}
}
