package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// FeedCache is the slice of the cache the feed path uses.
type FeedCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

type dailyFeedKeyInput struct {
	ProfileHash   string `json:"profile_hash"`
	CorpusVersion int64  `json:"corpus_version"`
}

// DailyFeedCacheKey keys a cached feed by candidate, profile content and
// corpus version. A profile edit or a finished ingestion batch changes the
// key, so stale feeds are simply never read again.
func DailyFeedCacheKey(candidateID, profileHash string, corpusVersion int64) string {
	b, _ := json.Marshal(dailyFeedKeyInput{ProfileHash: profileHash, CorpusVersion: corpusVersion})
	sum := sha256.Sum256(b)
	return "feed:daily:" + candidateID + ":" + hex.EncodeToString(sum[:])
}

func FeedLockKey(cacheKey string) string {
	return "feed:lock:" + cacheKey
}
