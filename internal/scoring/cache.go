package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "judge:"
	prefixLength   = 50
)

// ResultCache stores judge results keyed by fingerprint. Implementations are best effort:
// callers treat every error as a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (ScoreResult, bool, error)
	Set(ctx context.Context, key string, result ScoreResult, ttl time.Duration) error
}

// Fingerprinter derives a short deduplication key for a judge request.
type Fingerprinter func(req JudgeRequest) string

// ContentFingerprint hashes the full question, answer and max score.
func ContentFingerprint(req JudgeRequest) string {
	hash := sha256.New()
	hash.Write([]byte(req.Question))
	hash.Write([]byte{0})
	hash.Write([]byte(req.Answer))
	hash.Write([]byte{0})
	hash.Write([]byte(strconv.FormatFloat(req.MaxScore, 'f', -1, 64)))
	return hex.EncodeToString(hash.Sum(nil))
}

// PrefixFingerprint hashes only the first 50 characters of the question and of the answer.
// Distinct long inputs sharing both prefixes collide and share a cached result.
func PrefixFingerprint(req JudgeRequest) string {
	hash := sha256.New()
	hash.Write([]byte(truncateRunes(req.Question, prefixLength)))
	hash.Write([]byte{0})
	hash.Write([]byte(truncateRunes(req.Answer, prefixLength)))
	return hex.EncodeToString(hash.Sum(nil))
}

// FingerprinterByName resolves the configured fingerprint strategy, defaulting to ContentFingerprint.
func FingerprinterByName(name string) Fingerprinter {
	if name == "prefix" {
		return PrefixFingerprint
	}
	return ContentFingerprint
}

// CacheKey formats the cache key for a fingerprint.
func CacheKey(fingerprint string) string {
	return cacheKeyPrefix + fingerprint
}

// RedisResultCache keeps judge results in Redis as JSON strings.
type RedisResultCache struct {
	client *redis.Client
}

// NewRedisResultCache wraps a Redis client.
func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{client: client}
}

// Get returns the cached result, reporting false on a miss.
func (c *RedisResultCache) Get(ctx context.Context, key string) (ScoreResult, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ScoreResult{}, false, nil
	}
	if err != nil {
		return ScoreResult{}, false, err
	}

	var result ScoreResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return ScoreResult{}, false, err
	}
	return result, true, nil
}

// Set stores the result for ttl.
func (c *RedisResultCache) Set(ctx context.Context, key string, result ScoreResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
