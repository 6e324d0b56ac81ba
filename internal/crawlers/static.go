package crawlers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"

	"github.com/RecoveryAshes/bducrawl/internal/core"
	"github.com/RecoveryAshes/bducrawl/internal/models"
	"github.com/RecoveryAshes/bducrawl/internal/utils"
)

const (
	ctxStatus    = "status"
	ctxBody      = "body"
	ctxDecodeErr = "decode_err"

	acceptEncoding = "gzip, deflate, br"
)

// StaticLauncher 基于colly的纯HTTP加载会话启动器
// 不执行JavaScript,适用于服务端直接渲染的页面
type StaticLauncher struct {
	config  models.FetchConfig
	headers models.HeaderProvider
}

// NewStaticLauncher 创建静态启动器; headers可为nil
func NewStaticLauncher(config models.FetchConfig, headers models.HeaderProvider) *StaticLauncher {
	return &StaticLauncher{config: config, headers: headers}
}

// Launch 创建同步colly采集器
func (sl *StaticLauncher) Launch(ctx context.Context) (core.FetchSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var headers http.Header
	if sl.headers != nil {
		h, err := sl.headers.GetHeaders()
		if err != nil {
			return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		headers = h
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:              http.ProxyFromEnvironment,
			DisableCompression: true, // 解压统一由decompressResponse完成
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: sl.config.IgnoreCertErrors,
			},
		},
	}

	// 同一标识符会被重试,必须允许重复访问
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetClient(httpClient)
	c.SetRequestTimeout(sl.config.PageTimeout)
	c.ParseHTTPErrorResponse = true
	if ua := headers.Get("User-Agent"); ua != "" {
		c.UserAgent = ua
	}
	if sl.config.IgnoreCertErrors {
		utils.Warnf("静态加载已配置为跳过HTTPS证书验证")
	}

	c.OnRequest(func(r *colly.Request) {
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
		r.Headers.Set("Accept-Encoding", acceptEncoding)
	})

	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxStatus, r.StatusCode)

		body, err := decompressResponse(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			r.Ctx.Put(ctxDecodeErr, err)
			return
		}
		r.Ctx.Put(ctxBody, string(body))
	})

	return &StaticSession{collector: c, client: httpClient, config: sl.config}, nil
}

// StaticSession 一个colly采集器,同步执行请求
type StaticSession struct {
	collector *colly.Collector
	client    *http.Client
	config    models.FetchConfig
}

// Fetch 请求一个页面
// 网络错误、超时、解压失败、5xx视为TransientFailure
func (s *StaticSession) Fetch(ctx context.Context, url string) (models.FetchOutcome, error) {
	if err := ctx.Err(); err != nil {
		return models.FetchOutcome{}, err
	}

	reqCtx := colly.NewContext()
	if err := s.collector.Request(http.MethodGet, url, nil, reqCtx, nil); err != nil {
		if ctx.Err() != nil {
			return models.FetchOutcome{}, ctx.Err()
		}
		return models.TransientFailure(fmt.Errorf("请求失败: %w", err)), nil
	}

	if err, ok := reqCtx.GetAny(ctxDecodeErr).(error); ok {
		return models.TransientFailure(err), nil
	}
	status, _ := reqCtx.GetAny(ctxStatus).(int)
	if status == 0 {
		return models.TransientFailure(fmt.Errorf("未收到响应: %s", url)), nil
	}

	return Classify(status, reqCtx.Get(ctxBody), s.config.NotFoundMarkers), nil
}

// Close 释放空闲连接
func (s *StaticSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
