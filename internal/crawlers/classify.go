package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

// ErrEmptyPage 页面加载完成但没有内容
var ErrEmptyPage = errors.New("页面内容为空")

// Classify 根据文档状态码和页面内容对一次加载结果分类
// status为0表示状态码未知(例如浏览器没有捕获到文档响应)
//
//   - 404/410 或页面标题(title/h1)包含未找到标记 → NotFound
//   - 408/429/5xx 或空页面 → TransientFailure
//   - 其余 → Success
func Classify(status int, markup string, notFoundMarkers []string) models.FetchOutcome {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return models.NotFound()
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return models.TransientFailure(fmt.Errorf("HTTP %d", status))
	}

	if strings.TrimSpace(markup) == "" {
		return models.TransientFailure(ErrEmptyPage)
	}
	if ContainsNotFoundMarker(markup, notFoundMarkers) {
		return models.NotFound()
	}
	return models.Success(markup)
}

// signatureSelector 未找到页面的特征元素; 正文中引用的标记文字不算
const signatureSelector = "title, h1"

// ContainsNotFoundMarker 页面标题是否包含任一未找到标记(不区分大小写)
func ContainsNotFoundMarker(markup string, markers []string) bool {
	if len(markers) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return false
	}
	var headings []string
	doc.Find(signatureSelector).Each(func(_ int, s *goquery.Selection) {
		headings = append(headings, strings.Join(strings.Fields(s.Text()), " "))
	})
	lower := strings.ToLower(strings.Join(headings, "\n"))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// decompressResponse 根据Content-Encoding解压响应体
// colly已自行处理gzip的情况下正文不再带gzip头,此时原样返回
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()
		return readAll(reader, "gzip")

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		return readAll(reader, "deflate")

	case "br":
		return readAll(brotli.NewReader(bytes.NewReader(body)), "brotli")

	case "", "identity":
		return body, nil

	default:
		return nil, fmt.Errorf("不支持的Content-Encoding: %s", contentEncoding)
	}
}

func readAll(r io.Reader, name string) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s读取失败: %w", name, err)
	}
	return out, nil
}
