package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

const pageURL = "https://bdu.fstec.ru/vul/2025-00042"

const recordPage = `<!DOCTYPE html>
<html><head><title>БДУ</title><script>var t = "Уязвимость не найдена";</script></head>
<body>
  <h1>BDU:2025-00042:  Уязвимость  компонента&nbsp;X</h1>
  <table class="table">
    <tr><td>Описание уязвимости:</td><td>Уязвимость компонента X
      позволяет нарушителю ...</td></tr>
    <tr><td>Вендор ПО</td><td>ООО «Пример»</td></tr>
    <tr><th colspan="2">Разделитель</th></tr>
    <tr><td>Вендор ПО</td><td>дубликат</td></tr>
    <tr><td>CVSS 3.0</td><td>7,5</td></tr>
    <tr><td></td><td>без метки</td></tr>
  </table>
</body></html>`

func defaultExtractor() *BDUExtractor {
	return NewBDUExtractor(models.ExtractConfig{
		SkipMarkers: []string{"зарезервирован"},
		StopMarkers: []string{"Уязвимость не найдена"},
	})
}

func TestExtract_Record(t *testing.T) {
	result, err := defaultExtractor().Extract(recordPage, pageURL)
	require.NoError(t, err)
	require.Equal(t, models.ExtractRecord, result.Kind)

	record := result.Record
	require.Equal(t, "2025-00042", record.Identifier)
	require.Equal(t, pageURL, record.URL)
	require.Equal(t, []string{
		FieldIdentifier, FieldURL, FieldTitle, "Описание уязвимости", "Вендор ПО", "CVSS 3.0",
	}, record.Names())

	title, _ := record.Get(FieldTitle)
	require.Equal(t, "BDU:2025-00042: Уязвимость компонента X", title)

	desc, _ := record.Get("Описание уязвимости")
	require.Equal(t, "Уязвимость компонента X позволяет нарушителю ...", desc)

	vendor, _ := record.Get("Вендор ПО")
	require.Equal(t, "ООО «Пример»", vendor, "重复标签保留第一个")
}

func TestExtract_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   models.ExtractionKind
	}{
		{"结束标记", `<html><body><p>Уязвимость не найдена</p></body></html>`, models.ExtractStop},
		{"结束标记不区分大小写", `<html><body><p>УЯЗВИМОСТЬ НЕ НАЙДЕНА</p></body></html>`, models.ExtractStop},
		{"跳过标记", `<html><body><h1>BDU:2025-00043</h1><p>Идентификатор зарезервирован</p></body></html>`, models.ExtractSkip},
		{"结束标记优先于跳过标记", `<html><body><p>зарезервирован</p><p>Уязвимость не найдена</p></body></html>`, models.ExtractStop},
		{"字段值中的跳过标记", `<html><body><h1>BDU:2025-00042</h1><table><tr><td>Описание уязвимости</td><td>Запись в зарезервированной области памяти</td></tr></table></body></html>`, models.ExtractRecord},
		{"字段值中的结束标记", `<html><body><table><tr><td>Описание</td><td>Сообщение «Уязвимость не найдена» выводится при ...</td></tr></table></body></html>`, models.ExtractRecord},
		{"有数据行时忽略页面其他位置的标记", `<html><body><div class="news">Идентификатор зарезервирован</div><table><tr><td>Вендор ПО</td><td>ООО «Пример»</td></tr></table></body></html>`, models.ExtractRecord},
		{"没有表格", `<html><body><h1>Заголовок</h1><p>текст</p></body></html>`, models.ExtractEmpty},
		{"表格行不是两列", `<html><body><table><tr><td>a</td><td>b</td><td>c</td></tr></table></body></html>`, models.ExtractEmpty},
		{"空页面", ``, models.ExtractEmpty},
		{"脚本中的标记不生效", recordPage, models.ExtractRecord},
	}

	e := defaultExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Extract(tt.markup, pageURL)
			require.NoError(t, err)
			require.Equal(t, tt.want, result.Kind)
		})
	}
}

func TestExtract_MarkerInsideValueKeepsRecord(t *testing.T) {
	page := `<html><body><h1>BDU:2025-00042</h1><table>
	  <tr><td>Описание уязвимости</td><td>Уязвимость обработчика позволяет записать данные в зарезервированной области памяти</td></tr>
	</table></body></html>`

	result, err := defaultExtractor().Extract(page, pageURL)
	require.NoError(t, err)
	require.Equal(t, models.ExtractRecord, result.Kind)

	desc, ok := result.Record.Get("Описание уязвимости")
	require.True(t, ok)
	require.Contains(t, desc, "зарезервированной области памяти")
}

func TestExtract_CustomSelector(t *testing.T) {
	page := `<html><body>
	  <table id="other"><tr><td>Лишнее</td><td>x</td></tr></table>
	  <table id="vul"><tr><td>Статус</td><td>Подтверждена</td></tr></table>
	</body></html>`

	e := NewBDUExtractor(models.ExtractConfig{RowSelector: "table#vul tr"})
	result, err := e.Extract(page, pageURL)
	require.NoError(t, err)
	require.Equal(t, models.ExtractRecord, result.Kind)
	require.Equal(t, []string{FieldIdentifier, FieldURL, "Статус"}, result.Record.Names())
}

func TestIdentifierFromURL(t *testing.T) {
	tests := map[string]string{
		"https://bdu.fstec.ru/vul/2025-00042":  "2025-00042",
		"https://bdu.fstec.ru/vul/2025-00042/": "2025-00042",
		"https://bdu.fstec.ru/vul/":            "",
		"https://bdu.fstec.ru/vul/abc":         "",
		"":                                     "",
	}
	for in, want := range tests {
		if got := identifierFromURL(in); got != want {
			t.Errorf("identifierFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
