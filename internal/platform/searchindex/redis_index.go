// Package searchindex implements a keyword index on Redis sorted sets.
//
// Every term owns a sorted set "{ns}:{index}:term:{term}" whose members are document IDs
// scored by term frequency. A per-document set "{ns}:{index}:doc:{id}" remembers the terms
// so a document can be removed or replaced without scanning the whole index.
package searchindex

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultNamespace = "search"
	// queryKeyTTL bounds the lifetime of a temporary result set if DEL never runs.
	queryKeyTTL = 30 * time.Second
)

// RedisIndex is a keyword index backed by Redis.
type RedisIndex struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisIndex returns an index storing its keys under namespace.
// If namespace is empty, it uses "search".
func NewRedisIndex(rdb *redis.Client, namespace string) *RedisIndex {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RedisIndex{rdb: rdb, namespace: namespace}
}

// Add indexes the fields of one document, replacing any earlier version of it.
func (r *RedisIndex) Add(ctx context.Context, index string, id uint, fields map[string]string) error {
	if err := r.Remove(ctx, index, id); err != nil {
		return err
	}

	freq := make(map[string]int)
	for _, v := range fields {
		for _, t := range Tokenize(v) {
			freq[t]++
		}
	}
	if len(freq) == 0 {
		return nil
	}

	member := strconv.FormatUint(uint64(id), 10)
	docKey := r.docKey(index, id)
	terms := make([]any, 0, len(freq))

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for t, n := range freq {
			pipe.ZAdd(ctx, r.termKey(index, t), redis.Z{Score: float64(n), Member: member})
			terms = append(terms, t)
		}
		pipe.SAdd(ctx, docKey, terms...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("index %s/%d: %w", index, id, err)
	}
	return nil
}

// Remove drops a document from the index. Removing an unknown document is a no-op.
func (r *RedisIndex) Remove(ctx context.Context, index string, id uint) error {
	docKey := r.docKey(index, id)
	terms, err := r.rdb.SMembers(ctx, docKey).Result()
	if err != nil {
		return fmt.Errorf("load terms of %s/%d: %w", index, id, err)
	}
	if len(terms) == 0 {
		return nil
	}

	member := strconv.FormatUint(uint64(id), 10)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range terms {
			pipe.ZRem(ctx, r.termKey(index, t), member)
		}
		pipe.Del(ctx, docKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove %s/%d: %w", index, id, err)
	}
	return nil
}

// Query returns one page of document IDs matching any term of expr, best match first,
// and the number of matching documents.
func (r *RedisIndex) Query(ctx context.Context, index, expr string, page, perPage int) ([]uint, int64, error) {
	terms := unique(Tokenize(expr))
	if len(terms) == 0 || perPage <= 0 {
		return []uint{}, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if page > math.MaxInt/perPage {
		page = math.MaxInt / perPage
	}

	keys := make([]string, len(terms))
	for i, t := range terms {
		keys[i] = r.termKey(index, t)
	}

	tmp := fmt.Sprintf("%s:%s:query:%s", r.namespace, index, uuid.NewString())
	start := int64((page - 1) * perPage)
	stop := start + int64(perPage) - 1

	var (
		rangeCmd *redis.StringSliceCmd
		cardCmd  *redis.IntCmd
	)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZUnionStore(ctx, tmp, &redis.ZStore{Keys: keys, Aggregate: "SUM"})
		pipe.Expire(ctx, tmp, queryKeyTTL)
		rangeCmd = pipe.ZRevRange(ctx, tmp, start, stop)
		cardCmd = pipe.ZCard(ctx, tmp)
		pipe.Del(ctx, tmp)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", index, err)
	}

	members := rangeCmd.Val()
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		n, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("query %s: bad member %q: %w", index, m, err)
		}
		ids = append(ids, uint(n))
	}
	return ids, cardCmd.Val(), nil
}

// Reset deletes every key of an index.
func (r *RedisIndex) Reset(ctx context.Context, index string) error {
	pattern := fmt.Sprintf("%s:%s:*", r.namespace, index)
	var cursor uint64
	for {
		keys, cur, err := r.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("reset %s: %w", index, err)
		}
		if len(keys) > 0 {
			if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("reset %s: %w", index, err)
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (r *RedisIndex) termKey(index, term string) string {
	return fmt.Sprintf("%s:%s:term:%s", r.namespace, index, term)
}

func (r *RedisIndex) docKey(index string, id uint) string {
	return fmt.Sprintf("%s:%s:doc:%d", r.namespace, index, id)
}

// Tokenize splits text into lower-case runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
