package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/speakerdex/internal/db"
)

// HSet sets hash fields.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	cmd := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// HIncrBy atomically increments a hash field (server-side HINCRBY).
func (s *Store) HIncrBy(ctx context.Context, key, field string, val int64) (int64, error) {
	cmd := s.b().Hincrby().Key(key).Field(field).Increment(val).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	return n, nil
}

// HIncrByWithFields runs HINCRBY and HSET inside one MULTI/EXEC block, so the
// counter and the extra fields are written together.
func (s *Store) HIncrByWithFields(
	ctx context.Context, key, field string, val int64, fields map[string]string,
) (int64, error) {
	if len(fields) == 0 {
		return s.HIncrBy(ctx, key, field, val)
	}

	hset := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		hset = hset.FieldValue(k, v)
	}
	resps := s.client.DoMulti(ctx,
		s.b().Multi().Build(),
		s.b().Hincrby().Key(key).Field(field).Increment(val).Build(),
		hset.Build(),
		s.b().Exec().Build(),
	)
	for _, r := range resps[:len(resps)-1] {
		if err := r.Error(); err != nil {
			return 0, &db.Error{Op: db.OpHIncrBy, Err: err}
		}
	}

	replies, err := resps[len(resps)-1].ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	if len(replies) != 2 {
		return 0, &db.Error{Op: db.OpHIncrBy, Err: fmt.Errorf("unexpected EXEC reply of %d elements", len(replies))}
	}
	if err := replies[1].Error(); err != nil {
		return 0, &db.Error{Op: db.OpHSet, Err: err}
	}
	n, err := replies[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	return n, nil
}

// cappedIncrScript increments ARGV[1] by ARGV[2] and sets the remaining
// field/value pairs, unless the result would exceed ARGV[3].
// Returns {applied, value}.
var cappedIncrScript = rueidis.NewLuaScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
if cur == nil then
  return redis.error_reply('ERR hash value is not an integer')
end
local val = tonumber(ARGV[2])
if cur + val > tonumber(ARGV[3]) then
  return {0, cur}
end
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], val)
for i = 4, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return {1, n}
`)

// HIncrByCapped runs the limit check and the writes in one server-side script.
func (s *Store) HIncrByCapped(
	ctx context.Context, key, field string, val, limit int64, fields map[string]string,
) (int64, bool, error) {
	args := make([]string, 0, 3+2*len(fields))
	args = append(args, field, strconv.FormatInt(val, 10), strconv.FormatInt(limit, 10))
	for k, v := range fields {
		args = append(args, k, v)
	}

	reply, err := cappedIncrScript.Exec(ctx, s.client, []string{key}, args).ToArray()
	if err != nil {
		return 0, false, &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	if len(reply) != 2 {
		return 0, false, &db.Error{Op: db.OpHIncrBy, Err: fmt.Errorf("unexpected script reply of %d elements", len(reply))}
	}
	applied, err := reply[0].AsInt64()
	if err != nil {
		return 0, false, &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	n, err := reply[1].AsInt64()
	if err != nil {
		return 0, false, &db.Error{Op: db.OpHIncrBy, Err: err}
	}
	return n, applied == 1, nil
}

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Exists().Key(key).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return count > 0, nil
}
