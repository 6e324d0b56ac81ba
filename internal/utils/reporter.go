package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

// Reporter 运行报告生成器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// WriteReport 将运行报告写入 <outputDir>/run_report_YYYYmmdd_HHMMSS.json
func (r *Reporter) WriteReport(report *models.RunReport) (string, error) {
	if err := EnsureDir(r.outputDir); err != nil {
		return "", err
	}

	data, err := report.ToJSON()
	if err != nil {
		return "", fmt.Errorf("序列化运行报告失败: %w", err)
	}

	path := filepath.Join(r.outputDir, TimestampedFilename("run_report", "json", report.EndTime))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入运行报告失败: %w", err)
	}

	Debugf("保存运行报告: %s", path)
	return path, nil
}

// PrintSummary 输出面向用户的汇总: 一行结果说明(异常终止时附带原因),遗漏清单非空时逐条列出
func PrintSummary(w io.Writer, result *models.RunResult, ledgerPath string) {
	var line string
	switch {
	case result.OutputPath != "":
		line = fmt.Sprintf("结果已保存: %s (%d 条记录)", result.OutputPath, len(result.Records))
	case result.NoData:
		line = "未采集到任何数据"
	default:
		line = fmt.Sprintf("结果保存失败: %v", result.SaveErr)
	}
	if result.State == models.StateTerminatedError {
		line += fmt.Sprintf("; 运行异常终止于 %s: %s", result.Cursor, result.ErrorText())
	}
	fmt.Fprintln(w, line)

	if len(result.MissedURLs) == 0 {
		return
	}
	fmt.Fprintf(w, "以下 %d 个URL未能采集 (已记录到 %s):\n", len(result.MissedURLs), ledgerPath)
	for _, url := range result.MissedURLs {
		fmt.Fprintf(w, "  %s\n", url)
	}
}
