package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogger_ConsoleOnly(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	config := DefaultLogConfig()
	config.LogDir = tempDir
	config.Console = &console

	if _, err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Info("控制台日志")

	if !strings.Contains(console.String(), "控制台日志") {
		t.Errorf("控制台输出缺少日志: %q", console.String())
	}
	// 未开启--log时不创建日志目录
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Errorf("不应创建日志目录: %s", tempDir)
	}
}

func TestInitLogger_FileOutput(t *testing.T) {
	tempDir := t.TempDir()

	config := LogConfig{
		Enabled:    true,
		Level:      "info",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Console:    &bytes.Buffer{},
	}

	if _, err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Infof("已采集: %s", "2025-00001")
	Debugf("调试日志 - 级别为info时不输出")
	Warnf("重试: %d", 2)
	Errorf("加载失败: %s", "timeout")

	mainLog, err := os.ReadFile(filepath.Join(tempDir, mainLogName))
	if err != nil {
		t.Fatalf("读取主日志失败: %v", err)
	}
	errLog, err := os.ReadFile(filepath.Join(tempDir, errorLogName))
	if err != nil {
		t.Fatalf("读取错误日志失败: %v", err)
	}

	tests := []struct {
		name    string
		content string
		substr  string
		want    bool
	}{
		{"主日志包含info", string(mainLog), "2025-00001", true},
		{"主日志包含error", string(mainLog), "timeout", true},
		{"主日志不含debug", string(mainLog), "调试日志", false},
		{"错误日志包含error", string(errLog), "timeout", true},
		{"错误日志不含warn", string(errLog), "重试", false},
		{"错误日志不含info", string(errLog), "2025-00001", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Contains(tt.content, tt.substr); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.substr, got, tt.want)
			}
		})
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Enabled {
		t.Error("默认不应写入日志文件")
	}
	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 || !config.Compress {
		t.Errorf("默认轮转配置错误: %+v", config)
	}
}
