package core

import "time"

const (
	// DefaultMaxAttempts 每个标识符默认最多加载3次
	DefaultMaxAttempts = 3

	// DefaultRetryBackoff 默认固定重试间隔
	DefaultRetryBackoff = 5 * time.Second
)

// FixedRetryPolicy 固定次数、固定间隔的重试策略
// 只对TransientFailure生效,NotFound和未分类错误从不重试
type FixedRetryPolicy struct {
	maxAttempts int
	backoff     time.Duration
}

// NewFixedRetryPolicy 创建重试策略,非法参数回退到默认值
func NewFixedRetryPolicy(maxAttempts int, backoff time.Duration) *FixedRetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff < 0 {
		backoff = DefaultRetryBackoff
	}
	return &FixedRetryPolicy{maxAttempts: maxAttempts, backoff: backoff}
}

// ShouldRetry 第attempt次(从1开始)尝试失败后是否还能重试
func (p *FixedRetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.maxAttempts
}

// Backoff 下一次尝试前的等待时间
func (p *FixedRetryPolicy) Backoff(int) time.Duration {
	return p.backoff
}

// MaxAttempts 最大尝试次数
func (p *FixedRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}
