package crawlers

import (
	"bytes"
	"compress/gzip"
	"errors"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

var testMarkers = []string{"Страница не найдена"}

// TestClassify 加载结果分类
func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		markup string
		want   models.FetchKind
	}{
		{"正常页面", 200, "<html><body><h1>BDU:2025-00001</h1></body></html>", models.FetchSuccess},
		{"状态码未知", 0, "<html><body>ok</body></html>", models.FetchSuccess},
		{"404", 404, "<html></html>", models.FetchNotFound},
		{"410", 410, "", models.FetchNotFound},
		{"200但含未找到标记", 200, "<title>Страница не найдена</title>", models.FetchNotFound},
		{"标记不区分大小写", 200, "<h1>СТРАНИЦА НЕ НАЙДЕНА</h1>", models.FetchNotFound},
		{"正文引用标记仍是正常页面", 200, `<html><body><table><tr><td>Описание уязвимости</td><td>Сервер возвращает ответ "404 Not Found" и Страница не найдена</td></tr></table></body></html>`, models.FetchSuccess},
		{"脚本中的标记不算", 200, `<html><head><script>var msg = "Страница не найдена";</script></head><body><h1>BDU:2025-00001</h1></body></html>`, models.FetchSuccess},
		{"502", 502, "<html>Bad Gateway</html>", models.FetchTransient},
		{"503", 503, "", models.FetchTransient},
		{"429", 429, "slow down", models.FetchTransient},
		{"空页面", 200, "   \n", models.FetchTransient},
		{"403交给提取器", 403, "<html>Forbidden</html>", models.FetchSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, tt.markup, testMarkers)
			if got.Kind != tt.want {
				t.Errorf("Classify(%d) = %s, want %s", tt.status, got.Kind, tt.want)
			}
			if got.Kind == models.FetchSuccess && got.Markup != tt.markup {
				t.Error("Success应携带原始页面内容")
			}
			if got.Kind == models.FetchTransient && got.Cause == nil {
				t.Error("TransientFailure应携带原因")
			}
		})
	}

	if got := Classify(200, "   ", nil); !errors.Is(got.Cause, ErrEmptyPage) {
		t.Errorf("空页面原因 = %v", got.Cause)
	}
}

func TestContainsNotFoundMarker(t *testing.T) {
	if ContainsNotFoundMarker("anything", nil) {
		t.Error("没有标记时不应命中")
	}
	if ContainsNotFoundMarker("<title>anything</title>", []string{"", "  "}) {
		t.Error("空白标记应被忽略")
	}
	if !ContainsNotFoundMarker("<html><body><h1>  Страница\n не  найдена </h1></body></html>", testMarkers) {
		t.Error("h1中的标记应命中")
	}
	if ContainsNotFoundMarker("<html><body><p>404 Not Found</p></body></html>", []string{"404 Not Found"}) {
		t.Error("正文段落中的标记不应命中")
	}
}

// TestDecompressResponse 测试响应解压
func TestDecompressResponse(t *testing.T) {
	plain := []byte("<html><body>Уязвимость</body></html>")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(plain)
	gw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write(plain)
	bw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
		wantErr  bool
	}{
		{"无压缩", "", plain, false},
		{"identity", "identity", plain, false},
		{"gzip", "gzip", gz.Bytes(), false},
		{"已被解压的gzip", "gzip", plain, false},
		{"brotli", "br", br.Bytes(), false},
		{"大写编码名", " BR ", br.Bytes(), false},
		{"截断的brotli", "br", br.Bytes()[:br.Len()/2], true},
		{"未知编码", "zstd", plain, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompressResponse(tt.encoding, tt.body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decompressResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, plain) {
				t.Errorf("decompressResponse() = %q", got)
			}
		})
	}
}
