package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/bducrawl/internal/models"
	"github.com/spf13/viper"
)

// DefaultBaseURL 漏洞目录基础URL
const DefaultBaseURL = "https://bdu.fstec.ru/vul/"

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig   `mapstructure:"crawl"`
	Fetch   models.FetchConfig   `mapstructure:"fetch"`
	Extract models.ExtractConfig `mapstructure:"extract"`
	Output  OutputConfig         `mapstructure:"output"`
	Logging LoggingConfig        `mapstructure:"logging"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Enabled  bool           `mapstructure:"enabled"` // 是否写入日志文件
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	ResultsDir  string `mapstructure:"results_dir"`
	LedgerFile  string `mapstructure:"ledger_file"`
	Report      bool   `mapstructure:"report"`       // 是否写入JSON运行报告
	MetricsFile string `mapstructure:"metrics_file"` // prometheus textfile, 为空则不导出
}

// LedgerPath 遗漏清单完整路径
func (o OutputConfig) LedgerPath() string {
	return filepath.Join(o.ResultsDir, o.LedgerFile)
}

// LoadConfig 加载配置文件
// configPath为空时按 ./configs, ., ~/.bducrawl 顺序搜索config.yaml,找不到则使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bducrawl"))
		}
	}

	// BDUCRAWL_CRAWL_MAX_ATTEMPTS 覆盖 crawl.max_attempts
	v.SetEnvPrefix("BDUCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取
	v.SetDefault("crawl.base_url", DefaultBaseURL)
	v.SetDefault("crawl.max_attempts", DefaultMaxAttempts)
	v.SetDefault("crawl.retry_backoff", DefaultRetryBackoff)

	// 页面加载
	v.SetDefault("fetch.mode", string(models.ModeBrowser))
	v.SetDefault("fetch.headless", true)
	v.SetDefault("fetch.wait_time", "10s")
	v.SetDefault("fetch.page_timeout", "60s")
	v.SetDefault("fetch.ignore_cert_errors", true)
	v.SetDefault("fetch.min_free_memory_mb", 512)
	v.SetDefault("fetch.not_found_markers", []string{"Страница не найдена"})
	v.SetDefault("fetch.headers", map[string]string{})

	// 提取
	v.SetDefault("extract.skip_markers", []string{"зарезервирован"})
	v.SetDefault("extract.stop_markers", []string{"Уязвимость не найдена"})
	v.SetDefault("extract.row_selector", "table tr")

	// 输出
	v.SetDefault("output.results_dir", "results")
	v.SetDefault("output.ledger_file", "missed_urls.txt")
	v.SetDefault("output.report", true)
	v.SetDefault("output.metrics_file", "")

	// 日志
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if c.Output.ResultsDir == "" {
		return fmt.Errorf("output.results_dir不能为空")
	}
	if c.Output.LedgerFile == "" || strings.ContainsAny(c.Output.LedgerFile, `/\`) {
		return fmt.Errorf("output.ledger_file必须是文件名: %q", c.Output.LedgerFile)
	}
	return nil
}

// MergeCLIFlags 合并命令行参数到配置,命令行参数优先于配置文件
// 空字符串表示未指定
func (c *Config) MergeCLIFlags(
	logEnabled bool,
	logLevel string,
	mode string,
	headless *bool,
	resultsDir string,
	metricsFile string,
) {
	if logEnabled {
		c.Logging.Enabled = true
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if mode != "" {
		c.Fetch.Mode = models.FetchMode(mode)
	}
	if headless != nil {
		c.Fetch.Headless = *headless
	}
	if resultsDir != "" {
		c.Output.ResultsDir = resultsDir
	}
	if metricsFile != "" {
		c.Output.MetricsFile = metricsFile
	}
}
