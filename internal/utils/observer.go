package utils

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

// LogObserver 将控制器事件写入zerolog
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver 创建日志观察者
func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{log: logger}
}

func (o *LogObserver) RunStarted(runID string, start string) {
	o.log.Info().Str("run_id", runID).Str("start", start).Msg("开始爬取")
}

func (o *LogObserver) AttemptStarted(id string, url string, attempt int) {
	o.log.Debug().Str("id", id).Str("url", url).Int("attempt", attempt).Msg("加载页面")
}

func (o *LogObserver) RetryScheduled(id string, url string, attempt int, cause error, backoff time.Duration) {
	o.log.Warn().
		Err(cause).
		Str("id", id).
		Str("url", url).
		Int("attempt", attempt).
		Dur("backoff", backoff).
		Msg("页面加载失败,稍后重试")
}

func (o *LogObserver) RecordCollected(id string, record models.Record) {
	o.log.Info().Str("id", id).Int("fields", len(record.Fields)).Msg("已采集")
}

func (o *LogObserver) URLMissed(id string, url string, reason models.MissReason) {
	o.log.Warn().Str("id", id).Str("url", url).Str("reason", string(reason)).Msg("已记入遗漏清单")
}

func (o *LogObserver) RunFinished(result *models.RunResult) {
	event := o.log.Info()
	if result.State == models.StateTerminatedError {
		event = o.log.Error().Err(result.Err)
	}
	event.
		Str("run_id", result.RunID).
		Str("state", string(result.State)).
		Str("cursor", result.Cursor).
		Int("visited", result.Visited).
		Int("records", len(result.Records)).
		Int("missed", len(result.MissedURLs)).
		Dur("duration", result.Duration()).
		Msg("爬取结束")

	if result.SaveErr != nil {
		o.log.Error().Err(result.SaveErr).Msg("保存结果失败")
	}
}

// ProgressObserver 以旋转进度条显示已采集记录数
// 总数未知,使用 -1 作为max
type ProgressObserver struct {
	models.NopObserver
	bar *progressbar.ProgressBar
}

// NewProgressObserver 创建进度条观察者
func NewProgressObserver(w io.Writer) *ProgressObserver {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("采集中"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("条"),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressObserver{bar: bar}
}

func (o *ProgressObserver) AttemptStarted(id string, _ string, attempt int) {
	if attempt > 1 {
		o.bar.Describe(id + " 重试")
		return
	}
	o.bar.Describe(id)
}

func (o *ProgressObserver) RecordCollected(string, models.Record) {
	_ = o.bar.Add(1)
}

func (o *ProgressObserver) RunFinished(*models.RunResult) {
	_ = o.bar.Finish()
}
