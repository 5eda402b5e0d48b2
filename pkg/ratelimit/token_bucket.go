package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket 按每分钟请求数限流，并对可重试错误做指数退避
type TokenBucket struct {
	limiter       *rate.Limiter
	retryWaitTime time.Duration
	maxRetries    int
}

// NewTokenBucket 创建限流器，capacity<=0 时取 QPM 的一半（至少为 1）
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if qpm <= 0 {
		qpm = 30
	}
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}
	return &TokenBucket{
		limiter:       rate.NewLimiter(rate.Limit(float64(qpm)/60.0), capacity),
		retryWaitTime: time.Second,
		maxRetries:    3,
	}
}

// WithRetryPolicy 设置重试策略
func (tb *TokenBucket) WithRetryPolicy(waitTime time.Duration, maxRetries int) *TokenBucket {
	if waitTime > 0 {
		tb.retryWaitTime = waitTime
	}
	if maxRetries >= 0 {
		tb.maxRetries = maxRetries
	}
	return tb
}

// Allow 不阻塞地尝试获取一个令牌
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

// Wait 阻塞直到拿到令牌或 ctx 结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// RetryWithBackoff 每次尝试前先取令牌，可重试错误按 retryWaitTime*2^n 退避
func (tb *TokenBucket) RetryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	for retry := 0; retry <= tb.maxRetries; retry++ {
		if err = tb.Wait(ctx); err != nil {
			return err
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) || retry >= tb.maxRetries {
			return err
		}

		backoff := tb.retryWaitTime * time.Duration(1<<uint(retry))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

var retryableMarkers = []string{
	"timeout",
	"deadline exceeded",
	"connection reset",
	"EOF",
	"connection refused",
	"429",
	"rate limit",
	"no such host",
	"服务器繁忙",
	"请求超过限额",
}

// IsRetryableError 判断 LLM 调用错误是否值得重试。
// 调用方主动取消不重试。
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	msg := err.Error()
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
