// Package kv implements the session registry on an embedded Badger database.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/recipes-server/internal/store"
)

// Key layout:
//
//	session:<token id>                    -> JSON store.Session
//	idx:sessions:user:<user id>:<token id> -> empty
//
// Both keys carry the token's remaining lifetime as a Badger TTL, so
// expired sessions disappear without a cleanup job.
const (
	sessionPrefix       = "session:"
	sessionByUserPrefix = "idx:sessions:user:"
)

// ErrSessionExpired is returned by Register for a session already past its expiry.
var ErrSessionExpired = errors.New("session already expired")

// Sessions is a Badger-backed store.SessionRegistry.
type Sessions struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ store.SessionRegistry = (*Sessions)(nil)

// Open opens (or creates) the session registry at path.
func Open(path string, logger *slog.Logger) (*Sessions, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // A revoked token must stay revoked after a crash
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Session registry opened", "path", path)
	}

	return &Sessions{db: db, logger: logger, now: time.Now}, nil
}

// Close gracefully closes the database.
func (s *Sessions) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing session registry")
	}
	return s.db.Close()
}

// CollectGarbage reclaims value-log space left behind by expired and revoked
// sessions. It returns the number of log files rewritten.
func (s *Sessions) CollectGarbage() (int, error) {
	rewritten := 0
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, fmt.Errorf("value log gc: %w", err)
		}
		rewritten++
	}
}

func userIndexPrefix(userID int64) string {
	return sessionByUserPrefix + strconv.FormatInt(userID, 10) + ":"
}

// Register records an issued token until it expires.
func (s *Sessions) Register(_ context.Context, session store.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrSessionExpired
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := []byte(sessionPrefix + session.TokenID)
	indexKey := []byte(userIndexPrefix(session.UserID) + session.TokenID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(indexKey, []byte{}).WithTTL(ttl))
	})
}

// Get returns a live session by token ID.
func (s *Sessions) Get(_ context.Context, tokenID string) (*store.Session, error) {
	var session store.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + tokenID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !session.ExpiresAt.After(s.now()) {
		return nil, store.ErrNotFound
	}
	return &session, nil
}

// Exists reports whether the token is registered and not yet expired.
func (s *Sessions) Exists(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.Get(ctx, tokenID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Revoke removes a token. Revoking an unknown token is not an error.
func (s *Sessions) Revoke(ctx context.Context, tokenID string) error {
	session, err := s.Get(ctx, tokenID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(sessionPrefix + tokenID)); err != nil {
			return err
		}
		return txn.Delete([]byte(userIndexPrefix(session.UserID) + tokenID))
	})
}

// ListForUser returns the user's live sessions.
func (s *Sessions) ListForUser(ctx context.Context, userID int64) ([]*store.Session, error) {
	ids, err := s.tokenIDsForUser(userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]*store.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// RevokeAllForUser removes every token of the user except exceptTokenID
// (pass "" to revoke all). It returns the number of tokens revoked.
func (s *Sessions) RevokeAllForUser(_ context.Context, userID int64, exceptTokenID string) (int, error) {
	ids, err := s.tokenIDsForUser(userID)
	if err != nil {
		return 0, err
	}

	prefix := userIndexPrefix(userID)
	revoked := 0
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			if id == exceptTokenID {
				continue
			}
			if err := txn.Delete([]byte(sessionPrefix + id)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(prefix + id)); err != nil {
				return err
			}
			revoked++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}

	if s.logger != nil && revoked > 0 {
		s.logger.Info("Revoked user sessions", "user_id", userID, "count", revoked)
	}
	return revoked, nil
}

func (s *Sessions) tokenIDsForUser(userID int64) ([]string, error) {
	prefix := []byte(userIndexPrefix(userID))
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return ids, nil
}
