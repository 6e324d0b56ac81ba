package models

import (
	"fmt"
	"net/url"
	"time"
)

// RunState 爬取控制器状态
type RunState string

const (
	StateRunning           RunState = "running"              // 运行中
	StateStoppedBySignal   RunState = "stopped_by_signal"    // 页面给出显式结束标记
	StateStoppedByEmpty    RunState = "stopped_by_empty"     // 页面无数据
	StateStoppedByNotFound RunState = "stopped_by_not_found" // 目标站点返回未找到
	StateTerminatedError   RunState = "terminated_error"     // 未分类错误
)

// IsTerminal 是否为终止状态
func (s RunState) IsTerminal() bool {
	return s != StateRunning && s != ""
}

// FetchMode 页面加载方式
type FetchMode string

const (
	ModeBrowser FetchMode = "browser" // 浏览器渲染(go-rod)
	ModeStatic  FetchMode = "static"  // 纯HTTP(colly)
)

// CrawlConfig 控制器配置
type CrawlConfig struct {
	BaseURL      string        `mapstructure:"base_url" json:"base_url"`           // 目录基础URL,标识符直接拼接在其后
	MaxAttempts  int           `mapstructure:"max_attempts" json:"max_attempts"`   // 每个标识符的最大加载次数 (默认:3)
	RetryBackoff time.Duration `mapstructure:"retry_backoff" json:"retry_backoff"` // 重试间隔 (默认:5s)
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if err := ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base_url无效: %w", err)
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > 10 {
		return fmt.Errorf("max_attempts必须在1-10之间")
	}
	if c.RetryBackoff < 0 || c.RetryBackoff > 5*time.Minute {
		return fmt.Errorf("retry_backoff必须在0-5m之间")
	}
	return nil
}

// URLFor 拼接标识符对应的页面URL
func (c *CrawlConfig) URLFor(id Identifier) string {
	return c.BaseURL + id.String()
}

// FetchConfig 页面加载适配器配置
type FetchConfig struct {
	Mode             FetchMode         `mapstructure:"mode" json:"mode"`
	Headless         bool              `mapstructure:"headless" json:"headless"`
	WaitTime         time.Duration     `mapstructure:"wait_time" json:"wait_time"`       // 页面加载完成后的额外等待
	PageTimeout      time.Duration     `mapstructure:"page_timeout" json:"page_timeout"` // 单次尝试超时
	IgnoreCertErrors bool              `mapstructure:"ignore_cert_errors" json:"ignore_cert_errors"`
	MinFreeMemoryMB  int               `mapstructure:"min_free_memory_mb" json:"min_free_memory_mb"`
	NotFoundMarkers  []string          `mapstructure:"not_found_markers" json:"not_found_markers"`
	Headers          map[string]string `mapstructure:"headers" json:"-"`
}

// Validate 验证配置
func (c *FetchConfig) Validate() error {
	if c.Mode != ModeBrowser && c.Mode != ModeStatic {
		return fmt.Errorf("无效的加载模式: %s (有效值: browser, static)", c.Mode)
	}
	if c.WaitTime < 0 || c.WaitTime > time.Minute {
		return fmt.Errorf("wait_time必须在0-60s之间")
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("page_timeout必须大于0")
	}
	return nil
}

// ExtractConfig 提取器配置
type ExtractConfig struct {
	SkipMarkers []string `mapstructure:"skip_markers" json:"skip_markers"`
	StopMarkers []string `mapstructure:"stop_markers" json:"stop_markers"`
	RowSelector string   `mapstructure:"row_selector" json:"row_selector"`
}

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}
