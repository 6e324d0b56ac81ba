package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

// ErrAdapterPanic 适配器发生panic,在控制器边界被恢复为错误
var ErrAdapterPanic = errors.New("适配器panic")

// Fetcher 页面加载适配器
// 每次调用恰好返回 Success / NotFound / TransientFailure 之一;
// 返回非nil错误表示未分类错误,控制器会终止本次运行
type Fetcher interface {
	Fetch(ctx context.Context, url string) (models.FetchOutcome, error)
}

// FetchSession 一次运行内复用的加载会话(浏览器进程或HTTP采集器)
type FetchSession interface {
	Fetcher
	Close() error
}

// SessionLauncher 在运行开始前获取加载会话
type SessionLauncher interface {
	Launch(ctx context.Context) (FetchSession, error)
}

// Extractor 记录提取器,纯函数,不做网络或文件IO
type Extractor interface {
	Extract(markup string, url string) (models.ExtractionResult, error)
}

// Ledger 遗漏URL清单
type Ledger interface {
	Reset() error
	Append(url string) error
	ReadAll() ([]string, error)
}

// ResultSink 结果输出端; 记录为空时返回 models.ErrNoData 且不生成文件
type ResultSink interface {
	Save(records []models.Record, missedURLs []string) (string, error)
}

// Controller 顺序枚举标识符的爬取控制器
//
// 每个标识符的处理流程:
//  1. 拼接URL (base_url + 标识符)
//  2. 加载页面,TransientFailure按固定间隔重试,耗尽后记入遗漏清单并前进
//  3. NotFound 直接终止
//  4. 加载成功后提取: Record累积 / Skip记入遗漏清单 / Empty与Stop终止
//  5. 任何未分类错误终止运行,但已累积的结果仍会交给输出端
type Controller struct {
	config    models.CrawlConfig
	retry     *FixedRetryPolicy
	launcher  SessionLauncher
	extractor Extractor
	ledger    Ledger
	sink      ResultSink
	observer  models.Observer

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewController 创建控制器
func NewController(
	config models.CrawlConfig,
	launcher SessionLauncher,
	extractor Extractor,
	ledger Ledger,
	sink ResultSink,
	observer models.Observer,
) *Controller {
	if observer == nil {
		observer = models.NopObserver{}
	}
	return &Controller{
		config:    config,
		retry:     NewFixedRetryPolicy(config.MaxAttempts, config.RetryBackoff),
		launcher:  launcher,
		extractor: extractor,
		ledger:    ledger,
		sink:      sink,
		observer:  observer,
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// Run 从start开始枚举直到进入终止状态
// 只有起始标识符非法或遗漏清单无法重置时返回错误,此时爬取根本没有开始;
// 其余情况(包括TerminatedError)都返回结果,结果已交给输出端
func (c *Controller) Run(ctx context.Context, start string) (*models.RunResult, error) {
	startID, err := models.ParseIdentifier(start)
	if err != nil {
		return nil, err
	}
	if err := c.ledger.Reset(); err != nil {
		return nil, fmt.Errorf("重置遗漏清单失败: %w", err)
	}

	result := &models.RunResult{
		RunID:     models.NewRunID(),
		Start:     startID.String(),
		Cursor:    startID.String(),
		State:     models.StateRunning,
		Records:   make([]models.Record, 0),
		StartedAt: c.now(),
	}
	c.observer.RunStarted(result.RunID, result.Start)

	session, err := c.launcher.Launch(ctx)
	if err != nil {
		c.terminate(result, fmt.Errorf("启动加载会话失败: %w", err))
	} else {
		c.crawl(ctx, session, startID, result)
		if cerr := c.release(session); cerr != nil {
			result.SaveErr = errors.Join(result.SaveErr, cerr)
		}
	}

	c.finish(result)
	return result, nil
}

// crawl 主循环,每轮要么前进游标,要么进入终止状态
func (c *Controller) crawl(ctx context.Context, session Fetcher, cursor models.Identifier, result *models.RunResult) {
	for result.State == models.StateRunning {
		if err := ctx.Err(); err != nil {
			c.terminate(result, fmt.Errorf("运行被中断: %w", err))
			return
		}

		result.Cursor = cursor.String()
		result.Visited++
		url := c.config.URLFor(cursor)

		state, err := c.visit(ctx, session, cursor, url, result)
		if err != nil {
			c.terminate(result, fmt.Errorf("处理 %s 失败: %w", url, err))
			return
		}
		if state != models.StateRunning {
			result.State = state
			return
		}

		next, err := cursor.Next()
		if err != nil {
			c.terminate(result, err)
			return
		}
		cursor = next
	}
}

// visit 处理单个标识符,返回处理后的状态
func (c *Controller) visit(ctx context.Context, session Fetcher, id models.Identifier, url string, result *models.RunResult) (models.RunState, error) {
	outcome, err := c.fetchWithRetry(ctx, session, id, url)
	if err != nil {
		return "", err
	}

	switch outcome.Kind {
	case models.FetchNotFound:
		return models.StateStoppedByNotFound, nil
	case models.FetchTransient:
		// 重试耗尽,标识符视为未解决而非结束条件
		if err := c.miss(id, url, models.MissRetriesExhausted); err != nil {
			return "", err
		}
		return models.StateRunning, nil
	}

	extraction, err := c.extract(outcome.Markup, url)
	if err != nil {
		return "", err
	}

	switch extraction.Kind {
	case models.ExtractRecord:
		record := extraction.Record
		if record.Identifier == "" {
			record.Identifier = id.String()
		}
		if record.URL == "" {
			record.URL = url
		}
		result.Records = append(result.Records, record)
		c.observer.RecordCollected(id.String(), record)
		return models.StateRunning, nil
	case models.ExtractSkip:
		if err := c.miss(id, url, models.MissSkipped); err != nil {
			return "", err
		}
		return models.StateRunning, nil
	case models.ExtractEmpty:
		return models.StateStoppedByEmpty, nil
	case models.ExtractStop:
		return models.StateStoppedBySignal, nil
	default:
		return "", fmt.Errorf("未知的提取结果: %s", extraction.Kind)
	}
}

// fetchWithRetry 按重试策略加载页面
// 返回的结果要么是Success/NotFound,要么是重试耗尽后的最后一次TransientFailure
func (c *Controller) fetchWithRetry(ctx context.Context, session Fetcher, id models.Identifier, url string) (models.FetchOutcome, error) {
	for attempt := 1; ; attempt++ {
		c.observer.AttemptStarted(id.String(), url, attempt)

		outcome, err := c.fetch(ctx, session, url)
		if err != nil {
			return models.FetchOutcome{}, err
		}

		switch outcome.Kind {
		case models.FetchSuccess, models.FetchNotFound:
			return outcome, nil
		case models.FetchTransient:
			if !c.retry.ShouldRetry(attempt) {
				return outcome, nil
			}
			backoff := c.retry.Backoff(attempt)
			c.observer.RetryScheduled(id.String(), url, attempt, outcome.Cause, backoff)
			if err := c.sleep(ctx, backoff); err != nil {
				return models.FetchOutcome{}, fmt.Errorf("重试等待被中断: %w", err)
			}
		default:
			return models.FetchOutcome{}, fmt.Errorf("未知的加载结果: %s", outcome.Kind)
		}
	}
}

// fetch 调用适配器并把panic转换为错误
func (c *Controller) fetch(ctx context.Context, session Fetcher, url string) (outcome models.FetchOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: 加载 %s: %v", ErrAdapterPanic, url, r)
		}
	}()
	return session.Fetch(ctx, url)
}

// extract 调用提取器并把panic转换为错误
func (c *Controller) extract(markup string, url string) (result models.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: 提取 %s: %v", ErrAdapterPanic, url, r)
		}
	}()
	return c.extractor.Extract(markup, url)
}

// release 关闭加载会话
func (c *Controller) release(session FetchSession) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: 关闭加载会话: %v", ErrAdapterPanic, r)
		}
	}()
	if err := session.Close(); err != nil {
		return fmt.Errorf("关闭加载会话失败: %w", err)
	}
	return nil
}

// miss 写入遗漏清单并通知观察者
func (c *Controller) miss(id models.Identifier, url string, reason models.MissReason) error {
	if err := c.ledger.Append(url); err != nil {
		return fmt.Errorf("写入遗漏清单失败: %w", err)
	}
	c.observer.URLMissed(id.String(), url, reason)
	return nil
}

func (c *Controller) terminate(result *models.RunResult, err error) {
	result.State = models.StateTerminatedError
	result.Err = err
}

// finish 汇总并交给输出端,任何终止状态都会走到这里
func (c *Controller) finish(result *models.RunResult) {
	missed, err := c.ledger.ReadAll()
	if err != nil {
		result.SaveErr = errors.Join(result.SaveErr, err)
	}
	result.MissedURLs = missed
	result.FinishedAt = c.now()

	path, err := c.save(result.Records, missed)
	switch {
	case errors.Is(err, models.ErrNoData):
		result.NoData = true
	case err != nil:
		result.SaveErr = errors.Join(result.SaveErr, err)
	default:
		result.OutputPath = path
	}

	c.observer.RunFinished(result)
}

func (c *Controller) save(records []models.Record, missed []string) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("保存结果时panic: %v", r)
		}
	}()
	return c.sink.Save(records, missed)
}

// sleepContext 可被context取消的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
