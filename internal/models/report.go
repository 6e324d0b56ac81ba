package models

import (
	"encoding/json"
	"time"
)

// RunReport 运行报告,每次运行结束写出一份JSON
type RunReport struct {
	// 运行信息
	RunID   string   `json:"run_id"`
	Start   string   `json:"start"`
	Cursor  string   `json:"cursor"`
	State   RunState `json:"state"`
	Error   string   `json:"error,omitempty"`
	BaseURL string   `json:"base_url"`
	Mode    string   `json:"mode"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats RunStats `json:"stats"`

	// 遗漏清单
	MissedURLs []string `json:"missed_urls"`

	// 输出路径
	OutputPath string `json:"output_path,omitempty"`
	LedgerPath string `json:"ledger_path"`
}

// RunStats 运行统计
type RunStats struct {
	Visited int `json:"visited"` // 已访问标识符数
	Records int `json:"records"` // 已采集记录数
	Missed  int `json:"missed"`  // 遗漏URL数
}

// NewRunReport 由运行结果构造报告
func NewRunReport(result *RunResult, baseURL string, mode FetchMode, ledgerPath string) RunReport {
	missed := result.MissedURLs
	if missed == nil {
		missed = []string{}
	}
	return RunReport{
		RunID:     result.RunID,
		Start:     result.Start,
		Cursor:    result.Cursor,
		State:     result.State,
		Error:     result.ErrorText(),
		BaseURL:   baseURL,
		Mode:      string(mode),
		StartTime: result.StartedAt,
		EndTime:   result.FinishedAt,
		Duration:  result.Duration().Seconds(),
		Stats: RunStats{
			Visited: result.Visited,
			Records: len(result.Records),
			Missed:  len(result.MissedURLs),
		},
		MissedURLs: missed,
		OutputPath: result.OutputPath,
		LedgerPath: ledgerPath,
	}
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
