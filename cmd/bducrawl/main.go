package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/bducrawl/internal/core"
	"github.com/RecoveryAshes/bducrawl/internal/crawlers"
	"github.com/RecoveryAshes/bducrawl/internal/extract"
	"github.com/RecoveryAshes/bducrawl/internal/models"
	"github.com/RecoveryAshes/bducrawl/internal/output"
	"github.com/RecoveryAshes/bducrawl/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	logEnabled bool
	logLevel   string

	// HTTP头部参数
	headers        []string
	validateConfig bool

	// 爬取参数
	start       string
	mode        string
	headless    bool
	outputDir   string
	metricsFile string
	noProgress  bool
)

// 由PersistentPreRunE填充
var (
	appConfig *core.Config
	logger    zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bducrawl",
	Short: "БДУ ФСТЭК漏洞目录顺序采集工具",
	Long: `bducrawl - 按标识符顺序采集 bdu.fstec.ru 漏洞目录

从起始标识符 (YYYY-NNNNN) 开始逐个访问漏洞页面,提取页面中的 标签:值 表格,
直到目标站点给出结束信号。结果写入xlsx,未能采集的URL记录到遗漏清单。

  • 浏览器渲染(go-rod)和纯HTTP(colly)两种加载方式
  • 临时失败按固定间隔重试,耗尽后记入遗漏清单并继续
  • 异常终止时已采集的记录仍会保存

示例:
  bducrawl -s 2025-00001
  bducrawl -s 2025-00001 --mode static -o ./out
  bducrawl -s 2025-00001 -H "Cookie: PHPSESSID=..." --log --log-level debug

  # 验证配置
  bducrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		var headlessFlag *bool
		if cmd.Flags().Changed("headless") {
			headlessFlag = &headless
		}
		config.MergeCLIFlags(logEnabled, logLevel, mode, headlessFlag, outputDir, metricsFile)

		logger, err = utils.InitLogger(utils.LogConfig{
			Enabled:    config.Logging.Enabled,
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		})
		if err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		headerManager, err := core.NewHeaderManager(appConfig.Fetch.Headers, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		if validateConfig {
			return runValidateConfig(appConfig, headerManager)
		}

		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}
		if err := headerManager.Validate(); err != nil {
			return fmt.Errorf("HTTP头部无效: %w", err)
		}

		if start == "" {
			start, err = PromptStart(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("读取起始标识符失败: %w", err)
			}
		} else if err := ValidateStart(start); err != nil {
			return err
		}

		// Ctrl+C 取消运行,已采集的记录仍会保存
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runCrawl(ctx, cmd, appConfig, headerManager)
	},
}

func runCrawl(ctx context.Context, cmd *cobra.Command, config *core.Config, headerManager *core.HeaderManager) error {
	launcher, err := NewLauncher(config.Fetch, headerManager)
	if err != nil {
		return err
	}

	ledger, err := core.NewFileLedger(config.Output.LedgerPath())
	if err != nil {
		return err
	}
	defer ledger.Close()

	observers := models.MultiObserver{utils.NewLogObserver(logger)}
	if !noProgress {
		observers = append(observers, utils.NewProgressObserver(cmd.ErrOrStderr()))
	}
	if config.Output.MetricsFile != "" {
		metrics, err := utils.NewMetricsObserver(config.Output.MetricsFile)
		if err != nil {
			return fmt.Errorf("创建指标导出失败: %w", err)
		}
		observers = append(observers, metrics)
	}

	controller := core.NewController(
		config.Crawl,
		launcher,
		extract.NewBDUExtractor(config.Extract),
		ledger,
		output.NewExcelSink(config.Output.ResultsDir),
		observers,
	)

	logger.Info().
		Str("start", start).
		Str("mode", string(config.Fetch.Mode)).
		Str("base_url", config.Crawl.BaseURL).
		Str("headers", utils.NewHeaderRedactor().RedactToString(headerManager.GetMergedHeaders())).
		Msg("开始采集")

	result, err := controller.Run(ctx, start)
	if err != nil {
		return err
	}

	if config.Output.Report {
		report := models.NewRunReport(result, config.Crawl.BaseURL, config.Fetch.Mode, ledger.Path())
		if path, err := utils.NewReporter(config.Output.ResultsDir).WriteReport(&report); err != nil {
			logger.Warn().Err(err).Msg("写入运行报告失败")
		} else {
			logger.Info().Str("path", path).Msg("运行报告已保存")
		}
	}

	utils.PrintSummary(cmd.OutOrStdout(), result, ledger.Path())

	if result.State == models.StateTerminatedError {
		return fmt.Errorf("运行异常终止: %w", result.Err)
	}
	if result.SaveErr != nil {
		return fmt.Errorf("保存结果失败: %w", result.SaveErr)
	}
	return nil
}

// runValidateConfig 只校验配置和HTTP头部,不发起任何请求
func runValidateConfig(config *core.Config, headerManager *core.HeaderManager) error {
	utils.Info("验证配置...")
	if err := config.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("HTTP头部验证失败: %w", err)
	}

	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("配置验证通过")
	utils.Infof("基础URL: %s, 加载方式: %s, 最大尝试次数: %d",
		config.Crawl.BaseURL, config.Fetch.Mode, config.Crawl.MaxAttempts)
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bducrawl %s (构建时间: %s)\n", Version, BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认搜索 ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&logEnabled, "log", false, "同时写入日志文件")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace/debug/info/warn/error)")

	// HTTP头部参数
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义HTTP请求头 (可多次使用), 格式: 'Name: Value'")
	rootCmd.Flags().BoolVar(&validateConfig, "validate-config", false, "验证配置后退出")

	// 爬取参数
	rootCmd.Flags().StringVarP(&start, "start", "s", "", "起始标识符 YYYY-NNNNN (未指定时交互输入)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "", "加载方式: browser, static")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "浏览器无头模式")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "结果目录")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "prometheus textfile 指标输出路径")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示进度")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// NewLauncher 按加载方式创建会话启动器
func NewLauncher(config models.FetchConfig, headerManager *core.HeaderManager) (core.SessionLauncher, error) {
	switch config.Mode {
	case models.ModeBrowser:
		return crawlers.NewBrowserLauncher(config, headerManager), nil
	case models.ModeStatic:
		return crawlers.NewStaticLauncher(config, headerManager), nil
	default:
		return nil, fmt.Errorf("未知的加载方式: %q (可选: browser, static)", config.Mode)
	}
}
