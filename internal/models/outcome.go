package models

import "fmt"

// FetchKind 单次页面加载的结果类别
type FetchKind int

const (
	FetchSuccess   FetchKind = iota + 1 // 页面加载成功
	FetchNotFound                       // 目标站点返回"未找到",整个爬取到达边界
	FetchTransient                      // 可重试的临时失败
)

// String 实现fmt.Stringer
func (k FetchKind) String() string {
	switch k {
	case FetchSuccess:
		return "success"
	case FetchNotFound:
		return "not_found"
	case FetchTransient:
		return "transient_failure"
	default:
		return fmt.Sprintf("fetch_kind(%d)", int(k))
	}
}

// FetchOutcome 一次加载尝试的结果,每次尝试创建、立即消费、从不持久化
type FetchOutcome struct {
	Kind   FetchKind
	Markup string // 仅Success时有效
	Cause  error  // 仅TransientFailure时有效
}

// Success 构造成功结果
func Success(markup string) FetchOutcome {
	return FetchOutcome{Kind: FetchSuccess, Markup: markup}
}

// NotFound 构造未找到结果
func NotFound() FetchOutcome {
	return FetchOutcome{Kind: FetchNotFound}
}

// TransientFailure 构造临时失败结果
func TransientFailure(cause error) FetchOutcome {
	return FetchOutcome{Kind: FetchTransient, Cause: cause}
}

// ExtractionKind 提取结果类别,每次提取恰好一个
type ExtractionKind int

const (
	ExtractRecord ExtractionKind = iota + 1 // 提取到一条记录
	ExtractEmpty                            // 页面无数据,终止
	ExtractSkip                             // 保留/占位页面,跳过并记入遗漏清单
	ExtractStop                             // 显式的范围结束标记,终止
)

// String 实现fmt.Stringer
func (k ExtractionKind) String() string {
	switch k {
	case ExtractRecord:
		return "record"
	case ExtractEmpty:
		return "empty"
	case ExtractSkip:
		return "skip"
	case ExtractStop:
		return "stop"
	default:
		return fmt.Sprintf("extraction_kind(%d)", int(k))
	}
}

// ExtractionResult 提取器的输出
type ExtractionResult struct {
	Kind   ExtractionKind
	Record Record // 仅Kind==ExtractRecord时有效
}

// RecordResult 构造记录结果
func RecordResult(r Record) ExtractionResult {
	return ExtractionResult{Kind: ExtractRecord, Record: r}
}

// EmptyResult 构造空结果
func EmptyResult() ExtractionResult {
	return ExtractionResult{Kind: ExtractEmpty}
}

// SkipResult 构造跳过结果
func SkipResult() ExtractionResult {
	return ExtractionResult{Kind: ExtractSkip}
}

// StopResult 构造停止结果
func StopResult() ExtractionResult {
	return ExtractionResult{Kind: ExtractStop}
}
