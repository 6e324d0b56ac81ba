// Package extract 从漏洞页面中提取记录
package extract

import (
	"fmt"
	neturl "net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

// 固定字段,位于表格字段之前
const (
	FieldIdentifier = "Идентификатор"
	FieldURL        = "URL"
	FieldTitle      = "Заголовок"
)

// DefaultRowSelector 默认的表格行选择器
const DefaultRowSelector = "table tr"

// BDUExtractor 漏洞目录页面提取器
// 纯函数: 只解析传入的页面内容
type BDUExtractor struct {
	skipMarkers []string
	stopMarkers []string
	rowSelector string
}

// NewBDUExtractor 创建提取器
func NewBDUExtractor(config models.ExtractConfig) *BDUExtractor {
	selector := strings.TrimSpace(config.RowSelector)
	if selector == "" {
		selector = DefaultRowSelector
	}
	return &BDUExtractor{
		skipMarkers: lowerAll(config.SkipMarkers),
		stopMarkers: lowerAll(config.StopMarkers),
		rowSelector: selector,
	}
}

// Extract 解析页面
//
// 判定顺序:
//  1. 存在 标签:值 表格行 → Record (标记文字只是字段内容)
//  2. 页面正文包含结束标记 → Stop
//  3. 包含跳过标记 → Skip
//  4. 否则 → Empty
func (e *BDUExtractor) Extract(markup string, url string) (models.ExtractionResult, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return models.ExtractionResult{}, fmt.Errorf("解析HTML失败: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style, noscript, template").Remove()

	rows := e.tableFields(doc)
	if len(rows) == 0 {
		return e.signal(doc), nil
	}

	id := identifierFromURL(url)
	fields := make([]models.Field, 0, len(rows)+3)
	fields = append(fields,
		models.Field{Name: FieldIdentifier, Value: id},
		models.Field{Name: FieldURL, Value: url},
	)
	if title := normalize(doc.Find("h1").First().Text()); title != "" {
		fields = append(fields, models.Field{Name: FieldTitle, Value: title})
	}

	seen := make(map[string]bool, len(fields)+len(rows))
	for _, f := range fields {
		seen[f.Name] = true
	}
	for _, f := range rows {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		fields = append(fields, f)
	}

	return models.RecordResult(models.NewRecord(id, url, fields)), nil
}

// signal 没有数据行的页面: 结束标记优先于跳过标记
func (e *BDUExtractor) signal(doc *goquery.Document) models.ExtractionResult {
	text := strings.ToLower(normalize(doc.Find("body").Text()))
	switch {
	case containsAny(text, e.stopMarkers):
		return models.StopResult()
	case containsAny(text, e.skipMarkers):
		return models.SkipResult()
	default:
		return models.EmptyResult()
	}
}

// tableFields 按文档顺序收集恰好两个单元格的表格行
func (e *BDUExtractor) tableFields(doc *goquery.Document) []models.Field {
	var fields []models.Field
	doc.Find(e.rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() != 2 {
			return
		}
		label := strings.TrimRight(normalize(cells.Eq(0).Text()), ": ")
		if label == "" {
			return
		}
		fields = append(fields, models.Field{Name: label, Value: normalize(cells.Eq(1).Text())})
	})
	return fields
}

// identifierFromURL 取URL最后一段作为标识符
func identifierFromURL(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return ""
	}
	last := path.Base(strings.TrimRight(u.Path, "/"))
	if !models.ValidateIdentifier(last) {
		return ""
	}
	return last
}

// normalize 合并连续空白(含&nbsp;)
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(normalize(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
