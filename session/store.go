package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRecordNotFound is returned when a refresh record does not exist or
// has already expired or been consumed.
var ErrRecordNotFound = errors.New("refresh record not found")

// ErrSubjectMismatch is returned when a live record exists under the
// token ID but belongs to a different subject than the presented claim.
var ErrSubjectMismatch = errors.New("refresh record subject mismatch")

const (
	refreshKeyPrefix   = "refresh_token:"
	sessionIndexPrefix = "user_sessions:"
)

const (
	consumeStatusNotFound int64 = 0
	consumeStatusMismatch int64 = 1
	consumeStatusConsumed int64 = 2
)

// Check-and-delete for refresh rotation. Existence check, subject match,
// record delete, and index prune happen in one script so two concurrent
// presentations of the same token admit exactly one winner.
const consumeRefreshScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  redis.call("LREM", KEYS[2], 0, ARGV[1])
  if redis.call("LLEN", KEYS[2]) == 0 then
    redis.call("DEL", KEYS[2])
  end
  return 0
end
local ok, rec = pcall(cjson.decode, data)
if not ok or type(rec) ~= "table" or rec["subjectId"] ~= ARGV[2] then
  return 1
end
redis.call("DEL", KEYS[1])
redis.call("LREM", KEYS[2], 0, ARGV[1])
if redis.call("LLEN", KEYS[2]) == 0 then
  redis.call("DEL", KEYS[2])
end
return 2
`

var consumeRefreshLua = redis.NewScript(consumeRefreshScript)

const removeSessionScript = `
redis.call("DEL", KEYS[1])
redis.call("LREM", KEYS[2], 0, ARGV[1])
if redis.call("LLEN", KEYS[2]) == 0 then
  redis.call("DEL", KEYS[2])
end
return 1
`

var removeSessionLua = redis.NewScript(removeSessionScript)

// Store is the Redis adapter that owns refresh-token records and the
// per-subject session index. Records carry a TTL matching the signed
// refresh lifetime; the index is an ordered list of token IDs whose TTL
// is refreshed on every append.
//
// The index is only advisory: an ID listed there without a live record is
// treated as already revoked, never as an error. Dangling entries are
// pruned opportunistically on logout and rotation.
type Store struct {
	redis redis.UniversalClient
}

// NewStore returns a Store backed by the given Redis client. The client's
// lifecycle (connect, close, timeouts) belongs to the caller.
func NewStore(rdb redis.UniversalClient) *Store {
	return &Store{redis: rdb}
}

func refreshKey(tokenID string) string {
	return refreshKeyPrefix + tokenID
}

func indexKey(subjectID string) string {
	return sessionIndexPrefix + subjectID
}

// SaveRefresh persists a refresh record and appends its token ID to the
// subject's session index. The record write completes before the index
// append becomes visible, so a reader can never observe an indexed ID
// whose record was not yet durable.
func (s *Store) SaveRefresh(ctx context.Context, tokenID, subjectID string, ttl time.Duration) error {
	data, err := encodeRecord(&Record{
		SubjectID: subjectID,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, refreshKey(tokenID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, indexKey(subjectID), tokenID)
		pipe.Expire(ctx, indexKey(subjectID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// GetRefresh fetches a refresh record by token ID. Missing or expired
// records return ErrRecordNotFound.
func (s *Store) GetRefresh(ctx context.Context, tokenID string) (*Record, error) {
	data, err := s.redis.Get(ctx, refreshKey(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return decodeRecord(data)
}

// ConsumeRefresh atomically deletes the record for tokenID after checking
// that it belongs to subjectID, and prunes the token ID from the
// subject's index. Exactly one of any number of concurrent callers
// succeeds; the rest see ErrRecordNotFound. A live record owned by a
// different subject returns ErrSubjectMismatch and is left intact.
func (s *Store) ConsumeRefresh(ctx context.Context, tokenID, subjectID string) error {
	status, err := consumeRefreshLua.Run(
		ctx,
		s.redis,
		[]string{refreshKey(tokenID), indexKey(subjectID)},
		tokenID,
		subjectID,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case consumeStatusConsumed:
		return nil
	case consumeStatusMismatch:
		return ErrSubjectMismatch
	case consumeStatusNotFound:
		return ErrRecordNotFound
	default:
		return fmt.Errorf("%w: unknown consume script status %d", ErrRedisUnavailable, status)
	}
}

// RemoveSession deletes the record for tokenID and removes the ID from
// the subject's index, dropping the index entirely once it empties.
// Deleting an already-absent record is a no-op.
func (s *Store) RemoveSession(ctx context.Context, subjectID, tokenID string) error {
	_, err := removeSessionLua.Run(
		ctx,
		s.redis,
		[]string{refreshKey(tokenID), indexKey(subjectID)},
		tokenID,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SessionTokenIDs returns the subject's indexed token IDs in append
// order. Some of them may point at records that have already expired.
func (s *Store) SessionTokenIDs(ctx context.Context, subjectID string) ([]string, error) {
	ids, err := s.redis.LRange(ctx, indexKey(subjectID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// DeleteAllForSubject removes every indexed refresh record and then the
// index itself. IDs whose record already expired are deleted as no-ops.
//
// The read and the deletes are not atomic: a record created between them
// survives this call and must be caught by a follow-up invocation or its
// own TTL. That window matches the logout-all semantics callers expect.
func (s *Store) DeleteAllForSubject(ctx context.Context, subjectID string) error {
	tokenIDs, err := s.SessionTokenIDs(ctx, subjectID)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range tokenIDs {
			pipe.Del(ctx, refreshKey(id))
		}
		pipe.Del(ctx, indexKey(subjectID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Ping reports point-in-time Redis availability and round-trip latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
