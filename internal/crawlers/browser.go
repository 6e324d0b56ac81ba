package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/bducrawl/internal/core"
	"github.com/RecoveryAshes/bducrawl/internal/models"
	"github.com/RecoveryAshes/bducrawl/internal/utils"
)

// ErrBrowserCrashed 浏览器进程已退出
var ErrBrowserCrashed = errors.New("浏览器崩溃")

// WindowSize 浏览器窗口大小
const WindowSize = "1920,1080"

// BrowserLauncher 基于go-rod的加载会话启动器
// 每次运行启动一个浏览器进程,运行结束时由控制器关闭
type BrowserLauncher struct {
	config  models.FetchConfig
	headers models.HeaderProvider
	checker *ResourceChecker
}

// NewBrowserLauncher 创建浏览器启动器; headers可为nil
func NewBrowserLauncher(config models.FetchConfig, headers models.HeaderProvider) *BrowserLauncher {
	return &BrowserLauncher{
		config:  config,
		headers: headers,
		checker: NewResourceChecker(config.MinFreeMemoryMB),
	}
}

// Launch 启动并连接浏览器
func (bl *BrowserLauncher) Launch(ctx context.Context) (core.FetchSession, error) {
	if status, err := bl.checker.Check(); err != nil {
		utils.Warnf("资源检查: %v (%s)", err, status)
	} else {
		utils.Debugf("资源检查: %s", status)
	}

	userAgent, extra, err := splitHeaders(bl.headers)
	if err != nil {
		return nil, err
	}

	l := launcher.New().
		Context(ctx).
		Headless(bl.config.Headless).
		Set("window-size", WindowSize)
	if bl.config.IgnoreCertErrors {
		l = l.Set("ignore-certificate-errors")
		utils.Warnf("浏览器已配置为跳过HTTPS证书验证")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, bl.config.Headless)
	return &BrowserSession{
		browser:   browser,
		launcher:  l,
		config:    bl.config,
		userAgent: userAgent,
		headers:   extra,
	}, nil
}

// BrowserSession 一个浏览器进程,每次Fetch使用新的标签页
type BrowserSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	config   models.FetchConfig

	userAgent string
	headers   []string // SetExtraHeaders 需要的 name, value 交替列表
}

// Fetch 加载一个页面
// 导航失败、加载超时、5xx等视为TransientFailure; 上下文取消返回错误
func (s *BrowserSession) Fetch(ctx context.Context, url string) (models.FetchOutcome, error) {
	if err := ctx.Err(); err != nil {
		return models.FetchOutcome{}, err
	}

	pageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	page, err := s.browser.Context(pageCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		if ctx.Err() != nil {
			return models.FetchOutcome{}, ctx.Err()
		}
		return models.FetchOutcome{}, fmt.Errorf("%w: 创建标签页失败: %v", ErrBrowserCrashed, err)
	}
	defer func() { _ = page.Close() }()

	if s.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
			return models.TransientFailure(fmt.Errorf("设置User-Agent失败: %w", err)), nil
		}
	}
	if len(s.headers) > 0 {
		if _, err := page.SetExtraHeaders(s.headers); err != nil {
			return models.TransientFailure(fmt.Errorf("设置请求头部失败: %w", err)), nil
		}
	}

	// 订阅在导航之前完成,只记录主文档的状态码
	statusCh := make(chan int, 1)
	go page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		statusCh <- e.Response.Status
		return true
	})()

	timed := page.Timeout(s.config.PageTimeout)
	if err := timed.Navigate(url); err != nil {
		return s.transient(ctx, fmt.Errorf("导航失败: %w", err))
	}
	if err := timed.WaitLoad(); err != nil {
		return s.transient(ctx, fmt.Errorf("等待页面加载失败: %w", err))
	}

	// 额外等待动态内容渲染
	if err := wait(ctx, s.config.WaitTime); err != nil {
		return models.FetchOutcome{}, err
	}

	markup, err := page.HTML()
	if err != nil {
		return s.transient(ctx, fmt.Errorf("读取页面失败: %w", err))
	}

	status := 0
	select {
	case status = <-statusCh:
	default:
	}

	return Classify(status, markup, s.config.NotFoundMarkers), nil
}

func (s *BrowserSession) transient(ctx context.Context, err error) (models.FetchOutcome, error) {
	if ctx.Err() != nil {
		return models.FetchOutcome{}, ctx.Err()
	}
	return models.TransientFailure(err), nil
}

// Close 关闭浏览器并结束进程
func (s *BrowserSession) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	utils.Debugf("浏览器已关闭")
	return err
}

// splitHeaders 拆出User-Agent,其余头部转为 name, value 交替列表
func splitHeaders(provider models.HeaderProvider) (string, []string, error) {
	if provider == nil {
		return "", nil, nil
	}
	headers, err := provider.GetHeaders()
	if err != nil {
		return "", nil, fmt.Errorf("获取HTTP头部失败: %w", err)
	}

	userAgent := headers.Get("User-Agent")
	extra := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if http.CanonicalHeaderKey(name) == "User-Agent" || len(values) == 0 {
			continue
		}
		extra = append(extra, name, values[0])
	}
	return userAgent, extra, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
