package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/RecoveryAshes/bducrawl/internal/core"
	"github.com/RecoveryAshes/bducrawl/internal/crawlers"
	"github.com/RecoveryAshes/bducrawl/internal/models"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  bducrawl 运行环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	config, err := core.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Printf("❌ 配置无效: %v\n", err)
		allOK = false
	} else {
		fmt.Printf("✅ 配置有效: %s 模式, 基础URL %s\n", config.Fetch.Mode, config.Crawl.BaseURL)
	}

	// 浏览器模式需要本地Chromium; 找不到时rod会在首次启动时自动下载
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 浏览器: %s\n", path)
	} else if config.Fetch.Mode == models.ModeBrowser {
		fmt.Println("⚠️  未找到本地Chromium, 首次运行时将自动下载")
	}

	status, err := crawlers.NewResourceChecker(config.Fetch.MinFreeMemoryMB).Check()
	switch {
	case errors.Is(err, crawlers.ErrLowMemory):
		fmt.Printf("⚠️  %v\n", err)
	case err != nil:
		fmt.Printf("❌ 资源检查失败: %v\n", err)
		allOK = false
	default:
		fmt.Printf("✅ 主机资源: %s\n", status)
	}

	if err := os.MkdirAll(config.Output.ResultsDir, 0755); err != nil {
		fmt.Printf("❌ 结果目录不可写: %v\n", err)
		allOK = false
	} else {
		fmt.Printf("✅ 结果目录: %s\n", config.Output.ResultsDir)
	}

	fmt.Println()
	fmt.Println("==============================================")
	if !allOK {
		fmt.Println("❌ 环境验证失败,请解决上述问题。")
		os.Exit(1)
	}
	fmt.Println("✅ 环境验证通过!")
	fmt.Println()
	fmt.Println("下一步:")
	fmt.Println("  1. 运行 'go build -o bducrawl ./cmd/bducrawl' 构建")
	fmt.Println("  2. 运行 './bducrawl -s 2025-00001' 开始采集")
}
