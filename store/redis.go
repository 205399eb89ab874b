package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis persists each user as a JSON document under a single key, with
// secondary index keys mapping email, username, and one-time token hashes
// back to the user id. Read-modify-write cycles go through WATCH/MULTI so a
// concurrent writer forces a retry against a fresh fetch.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

const redisUpdateRetries = 4

// NewRedis wraps a Redis client. An empty prefix defaults to "ac".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "ac"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) userKey(id string) string       { return r.prefix + ":user:" + id }
func (r *Redis) emailKey(email string) string   { return r.prefix + ":email:" + email }
func (r *Redis) usernameKey(name string) string { return r.prefix + ":username:" + name }
func (r *Redis) resetKey(hash string) string    { return r.prefix + ":reset:" + hash }
func (r *Redis) verifyKey(hash string) string   { return r.prefix + ":verify:" + hash }

func (r *Redis) CreateUser(ctx context.Context, user *UserRecord) error {
	rec := user.Clone()
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	emailKey := r.emailKey(rec.Email)
	usernameKey := r.usernameKey(rec.Username)

	for i := 0; i < redisUpdateRetries; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			taken, err := tx.Exists(ctx, emailKey, usernameKey).Result()
			if err != nil {
				return err
			}
			if taken > 0 {
				return ErrDuplicate
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, r.userKey(rec.ID), encoded, 0)
				pipe.Set(ctx, emailKey, rec.ID, 0)
				pipe.Set(ctx, usernameKey, rec.ID, 0)
				r.indexOneTimeHashes(ctx, pipe, nil, rec)
				return nil
			})
			return err
		}, emailKey, usernameKey)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	return fmt.Errorf("%w: create contention not resolved", ErrUnavailable)
}

func (r *Redis) UserByID(ctx context.Context, id string) (*UserRecord, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var rec UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Redis) UserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return r.userByIndex(ctx, r.emailKey(email))
}

func (r *Redis) UserByResetTokenHash(ctx context.Context, hash string) (*UserRecord, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return r.userByIndex(ctx, r.resetKey(hash))
}

func (r *Redis) UserByVerificationTokenHash(ctx context.Context, hash string) (*UserRecord, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return r.userByIndex(ctx, r.verifyKey(hash))
}

func (r *Redis) userByIndex(ctx context.Context, indexKey string) (*UserRecord, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return r.UserByID(ctx, id)
}

func (r *Redis) Update(ctx context.Context, id string, fn func(*UserRecord) error) (*UserRecord, error) {
	key := r.userKey(id)

	for i := 0; i < redisUpdateRetries; i++ {
		var (
			updated *UserRecord
			fnErr   error
		)

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			var rec UserRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			prev := rec.Clone()

			if err := fn(&rec); err != nil {
				fnErr = err
				return err
			}
			rec.UpdatedAt = time.Now().UTC()

			encoded, err := json.Marshal(&rec)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				r.indexOneTimeHashes(ctx, pipe, prev, &rec)
				return nil
			})
			if err != nil {
				return err
			}

			updated = &rec
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrNotFound
			}
			// fn's own error aborts the write and surfaces unchanged.
			if fnErr != nil {
				return nil, fnErr
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: update contention not resolved", ErrUnavailable)
}

// indexOneTimeHashes reconciles the reset/verification hash index keys with
// the record being written. Index keys expire alongside the token.
func (r *Redis) indexOneTimeHashes(ctx context.Context, pipe redis.Pipeliner, prev, next *UserRecord) {
	prevReset, prevVerify := "", ""
	if prev != nil {
		prevReset = prev.ResetTokenHash
		prevVerify = prev.VerificationTokenHash
	}

	if prevReset != next.ResetTokenHash {
		if prevReset != "" {
			pipe.Del(ctx, r.resetKey(prevReset))
		}
		if next.ResetTokenHash != "" {
			pipe.Set(ctx, r.resetKey(next.ResetTokenHash), next.ID, indexTTL(next.ResetExpires))
		}
	}
	if prevVerify != next.VerificationTokenHash {
		if prevVerify != "" {
			pipe.Del(ctx, r.verifyKey(prevVerify))
		}
		if next.VerificationTokenHash != "" {
			pipe.Set(ctx, r.verifyKey(next.VerificationTokenHash), next.ID, indexTTL(next.VerificationExpires))
		}
	}
}

func indexTTL(expires *time.Time) time.Duration {
	if expires == nil {
		return 0
	}
	ttl := time.Until(*expires)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}
