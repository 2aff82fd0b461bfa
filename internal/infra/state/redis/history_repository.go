package redisstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"pixel-place/internal/domain"
)

// DefaultHistoryLimit 是最近修改列表的默认长度
const DefaultHistoryLimit = 100

// RedisHistoryRepository 是 HistoryRepository 接口的 Redis 实现
type RedisHistoryRepository struct {
	client    *redis.Client
	keyPrefix string
	limit     int
}

// NewRedisHistoryRepository 创建 RedisHistoryRepository 实例
func NewRedisHistoryRepository(client *redis.Client, keyPrefix string, limit int) *RedisHistoryRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisHistoryRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "place:"
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &RedisHistoryRepository{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
	}
}

// --- Key Generation Helpers ---
func (r *RedisHistoryRepository) historyKey() string {
	return r.keyPrefix + "tiles:history"
}

func (r *RedisHistoryRepository) commitCountKey() string {
	return r.keyPrefix + "tiles:commit_count"
}

// PushCommit 追加一条修改，保留最近 limit 条，并递增计数
func (r *RedisHistoryRepository) PushCommit(ctx context.Context, action domain.TileAction) error {
	payload, err := action.Marshal()
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	key := r.historyKey()
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-r.limit), -1)
	pipe.Incr(ctx, r.commitCountKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to push commit to %s: %w", key, err)
	}
	return nil
}

// RecentCommits 读取最近的修改，无法解析的条目会被跳过
func (r *RedisHistoryRepository) RecentCommits(ctx context.Context, limit int) ([]domain.TileAction, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}
	key := r.historyKey()
	raw, err := r.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to read commits from %s: %w", key, err)
	}
	actions := make([]domain.TileAction, 0, len(raw))
	for _, entry := range raw {
		action, err := domain.ParseTileAction(entry)
		if err != nil {
			logrus.WithField("key", key).WithError(err).Warn("redis: skipping malformed history entry")
			continue
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// CommitCount 返回累计提交次数
func (r *RedisHistoryRepository) CommitCount(ctx context.Context) (int64, error) {
	key := r.commitCountKey()
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis: failed to get commit count from %s: %w", key, err)
	}
	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: failed to parse commit count %q: %w", value, err)
	}
	return count, nil
}
