package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-resume-go/internal/config"
	"ai-resume-go/internal/constants"
	"ai-resume-go/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	// 所有 Redis 命令都会产生 span
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisFromClient(client, cfg), nil
}

// NewRedisFromClient 包装已有的客户端，不做连接检查
func NewRedisFromClient(client *redis.Client, cfg *config.RedisConfig) *Redis {
	if cfg == nil {
		cfg = &config.RedisConfig{}
	}
	return &Redis{Client: client, config: cfg}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回配置的MD5记录过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// ResumeMD5Key 文件 MD5 对应的去重 key
func ResumeMD5Key(md5Hex string) string {
	return fmt.Sprintf(constants.KeyResumeMD5ToID, md5Hex)
}

// JobCounterKey 岗位描述 MD5 对应的计数 key
func JobCounterKey(jobMD5 string) string {
	return fmt.Sprintf(constants.KeyJobAnalysisCounter, jobMD5)
}

// ClaimResumeMD5 尝试把文件 MD5 绑定到 resumeID。
// 已被占用时返回已有的简历 ID 和 false。
func (r *Redis) ClaimResumeMD5(ctx context.Context, md5Hex, resumeID string) (string, bool, error) {
	if r.Client == nil {
		return "", false, fmt.Errorf("redis client is not initialized")
	}
	key := ResumeMD5Key(md5Hex)
	ctx, span := tracing.StartSpan(ctx, "Redis.ClaimResumeMD5",
		attribute.String("redis.key", tracing.SafeRedisKey(key)),
	)
	defer span.End()

	existing, claimed, err := r.claimMD5(ctx, key, resumeID)
	if err != nil {
		tracing.RecordError(span, err, tracing.ClassifyError(err, tracing.ErrorTypeRedis))
		return "", false, err
	}
	span.SetAttributes(attribute.Bool("dedup.claimed", claimed))
	return existing, claimed, nil
}

func (r *Redis) claimMD5(ctx context.Context, key, resumeID string) (string, bool, error) {
	ok, err := r.Client.SetNX(ctx, key, resumeID, r.GetMD5ExpireDuration()).Result()
	if err != nil {
		return "", false, fmt.Errorf("写入MD5去重记录失败: %w", err)
	}
	if ok {
		return resumeID, true, nil
	}

	existing, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, ErrNotFound) {
		// 记录恰好过期，按新文件处理
		return r.claimMD5(ctx, key, resumeID)
	}
	if err != nil {
		return "", false, fmt.Errorf("读取MD5去重记录失败: %w", err)
	}
	return existing, false, nil
}

// ReleaseResumeMD5 删除去重记录，用于上传失败回滚或简历被删除
func (r *Redis) ReleaseResumeMD5(ctx context.Context, md5Hex string) error {
	if r.Client == nil || md5Hex == "" {
		return nil
	}
	return r.Client.Del(ctx, ResumeMD5Key(md5Hex)).Err()
}

// IncrJobAnalysisCounter 对同一份岗位描述的分析次数计数，返回累加后的值
func (r *Redis) IncrJobAnalysisCounter(ctx context.Context, jobMD5 string) (int64, error) {
	if r.Client == nil {
		return 0, fmt.Errorf("redis client is not initialized")
	}
	key := JobCounterKey(jobMD5)
	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, constants.JobCounterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("更新岗位分析计数失败: %w", err)
	}
	return incr.Val(), nil
}
