package core

import (
	"net/http"

	"github.com/RecoveryAshes/bducrawl/internal/models"
	"github.com/RecoveryAshes/bducrawl/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent (Edge 119, Windows)
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/119.0.0.0 Safari/537.36 Edg/119.0.0.0"
)

// HeaderManager 合并三层请求头部: 默认 < 配置文件(fetch.headers) < 命令行(-H)
// 实现 models.HeaderProvider 接口
type HeaderManager struct {
	defaults http.Header
	config   http.Header
	cli      http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor
}

// NewHeaderManager 创建头部管理器
// configHeaders 来自配置文件的 fetch.headers, cliHeaders 为命令行 "Name: Value" 列表
func NewHeaderManager(configHeaders map[string]string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:  getDefaultHeaders(),
		config:    make(http.Header),
		cli:       make(http.Header),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
	}

	for name, value := range configHeaders {
		hm.config.Set(name, value)
	}

	if len(cliHeaders) > 0 {
		parsed, err := models.CliHeaders(cliHeaders).Parse()
		if err != nil {
			return nil, err
		}
		hm.cli = parsed
	}

	return hm, nil
}

func getDefaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Language": []string{"ru-RU,ru;q=0.9,en;q=0.8"},
	}
}

// Validate 按 默认 → 配置 → 命令行 的顺序验证
func (hm *HeaderManager) Validate() error {
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		if err := hm.validator.Validate(layer); err != nil {
			return err
		}
	}
	return nil
}

// GetMergedHeaders 按优先级合并头部,同名头部整体覆盖
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的头部,用于日志
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// GetHeaders 验证并返回最终生效的头部
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	return hm.GetMergedHeaders(), nil
}

// UserAgent 最终生效的User-Agent
func (hm *HeaderManager) UserAgent() string {
	return hm.GetMergedHeaders().Get("User-Agent")
}
