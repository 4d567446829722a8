package ledger

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKVTimeout = 2 * time.Second

// RedisKV adapts a Redis client to the KV contract. Mirror keys carry no
// TTL: the mirror is a fallback copy, not a cache that may expire under a
// remote outage. Errors are swallowed to keep the never-fail semantics: a
// failed read is a miss and a failed write is dropped with a warning.
type RedisKV struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

// NewRedisKV wraps rdb. A nil logger disables logging.
func NewRedisKV(rdb *redis.Client, log *zap.SugaredLogger) *RedisKV {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RedisKV{rdb: rdb, log: log}
}

func (kv *RedisKV) GetString(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisKVTimeout)
	defer cancel()
	val, err := kv.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			kv.log.Debugf("mirror kv get failed key=%s err=%v", key, err)
		}
		return "", false
	}
	return val, true
}

func (kv *RedisKV) SetString(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisKVTimeout)
	defer cancel()
	if err := kv.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		kv.log.Warnf("mirror kv set failed key=%s err=%v", key, err)
	}
}
