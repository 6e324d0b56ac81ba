package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MissReason 遗漏原因
type MissReason string

const (
	MissRetriesExhausted MissReason = "retries_exhausted" // 重试次数耗尽
	MissSkipped          MissReason = "skipped"           // 页面为保留/占位页面
)

// RunResult 一次运行的最终汇总
type RunResult struct {
	RunID      string    `json:"run_id"`
	Start      string    `json:"start"`       // 起始标识符
	Cursor     string    `json:"cursor"`      // 终止时的标识符
	State      RunState  `json:"state"`       // 终止状态
	Err        error     `json:"-"`           // 仅 StateTerminatedError
	Visited    int       `json:"visited"`     // 访问过的标识符数量
	Records    []Record  `json:"records"`     // 按访问顺序
	MissedURLs []string  `json:"missed_urls"` // 遗漏清单内容
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// 结果落盘
	OutputPath string `json:"output_path,omitempty"`
	NoData     bool   `json:"no_data"`
	SaveErr    error  `json:"-"`
}

// NewRunID 生成运行ID
func NewRunID() string {
	return uuid.New().String()
}

// Duration 运行耗时
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ErrorText 终止错误的文本形式
func (r *RunResult) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Observer 控制器在各状态转换点调用的观察者
// 控制器不依赖全局日志,所有输出都通过注入的观察者完成
type Observer interface {
	RunStarted(runID string, start string)
	AttemptStarted(id string, url string, attempt int)
	RetryScheduled(id string, url string, attempt int, cause error, backoff time.Duration)
	RecordCollected(id string, record Record)
	URLMissed(id string, url string, reason MissReason)
	RunFinished(result *RunResult)
}

// NopObserver 空实现,可嵌入以只覆盖部分回调
type NopObserver struct{}

func (NopObserver) RunStarted(string, string)                                {}
func (NopObserver) AttemptStarted(string, string, int)                       {}
func (NopObserver) RetryScheduled(string, string, int, error, time.Duration) {}
func (NopObserver) RecordCollected(string, Record)                           {}
func (NopObserver) URLMissed(string, string, MissReason)                     {}
func (NopObserver) RunFinished(*RunResult)                                   {}

// MultiObserver 将事件依次分发给多个观察者
type MultiObserver []Observer

func (m MultiObserver) RunStarted(runID string, start string) {
	for _, o := range m {
		o.RunStarted(runID, start)
	}
}

func (m MultiObserver) AttemptStarted(id string, url string, attempt int) {
	for _, o := range m {
		o.AttemptStarted(id, url, attempt)
	}
}

func (m MultiObserver) RetryScheduled(id string, url string, attempt int, cause error, backoff time.Duration) {
	for _, o := range m {
		o.RetryScheduled(id, url, attempt, cause, backoff)
	}
}

func (m MultiObserver) RecordCollected(id string, record Record) {
	for _, o := range m {
		o.RecordCollected(id, record)
	}
}

func (m MultiObserver) URLMissed(id string, url string, reason MissReason) {
	for _, o := range m {
		o.URLMissed(id, url, reason)
	}
}

func (m MultiObserver) RunFinished(result *RunResult) {
	for _, o := range m {
		o.RunFinished(result)
	}
}

// ErrNoData 没有任何记录可保存,结果输出端不生成数据文件
var ErrNoData = errors.New("未采集到任何数据")
