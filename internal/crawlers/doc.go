// Package crawlers 提供漏洞目录页面的两种加载方式
//
// # 概述
//
// 两种方式都实现 core.SessionLauncher: 控制器在运行开始时 Launch 一次,
// 得到的会话在整个运行期间复用,运行结束(包括异常终止)时 Close。
//
// ## BrowserLauncher
//
// 基于go-rod,启动一个Chromium进程,每次Fetch打开新标签页:
//   - headless 可配置,窗口 1920x1080
//   - 可选 --ignore-certificate-errors
//   - User-Agent 和其他自定义头部来自 HeaderProvider
//   - 导航和加载受 page_timeout 限制,加载后固定等待 wait_time
//   - 通过 NetworkResponseReceived 事件捕获主文档状态码
//
// 启动前用 gopsutil 检查可用内存,低于 min_free_memory_mb 时只告警不拒绝。
//
//	launcher := NewBrowserLauncher(cfg.Fetch, headerManager)
//	session, err := launcher.Launch(ctx)
//	if err != nil { /* 处理错误 */ }
//	defer session.Close()
//	outcome, err := session.Fetch(ctx, "https://bdu.fstec.ru/vul/2025-00001")
//
// ## StaticLauncher
//
// 基于colly的同步采集器,不执行JavaScript。自行声明 Accept-Encoding 并解压
// gzip / deflate / br 响应体。
//
// # 结果分类
//
// 两种会话共用 Classify:
//   - 404/410 或页面 title/h1 包含 not_found_markers → NotFound (控制器终止)
//   - 408/429/5xx、网络错误、超时、空页面 → TransientFailure (控制器重试)
//   - 其余 → Success
//
// 浏览器进程失效返回 ErrBrowserCrashed,由控制器作为未分类错误处理。
package crawlers
