// Package output 将一次运行的记录写成xlsx工作簿
package output

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/RecoveryAshes/bducrawl/internal/models"
	"github.com/RecoveryAshes/bducrawl/internal/utils"
)

const (
	// FilePrefix 输出文件名前缀
	FilePrefix = "vulnerability_combined"

	SheetRecords = "vulnerabilities"
	SheetMissed  = "missed_urls"

	// excel单元格最多32767个字符
	maxCellLength = 32767
)

// ExcelSink xlsx结果输出端
type ExcelSink struct {
	dir string
	now func() time.Time
}

// NewExcelSink 创建输出端,文件写入dir
func NewExcelSink(dir string) *ExcelSink {
	return &ExcelSink{dir: dir, now: time.Now}
}

// Save 写入 <dir>/vulnerability_combined_YYYYmmdd_HHMMSS.xlsx
// 工作表vulnerabilities: 表头为全部字段名(按首次出现顺序),每条记录一行;
// 遗漏清单非空时追加工作表missed_urls。
// 没有记录时返回 models.ErrNoData,不生成文件
func (s *ExcelSink) Save(records []models.Record, missedURLs []string) (string, error) {
	if len(records) == 0 {
		return "", models.ErrNoData
	}
	if err := utils.EnsureDir(s.dir); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	// 新建文件自带Sheet1,改名复用
	if err := f.SetSheetName(f.GetSheetName(0), SheetRecords); err != nil {
		return "", fmt.Errorf("创建工作表失败: %w", err)
	}
	if err := writeRecords(f, records); err != nil {
		return "", err
	}

	if len(missedURLs) > 0 {
		if _, err := f.NewSheet(SheetMissed); err != nil {
			return "", fmt.Errorf("创建工作表失败: %w", err)
		}
		if err := writeMissed(f, missedURLs); err != nil {
			return "", err
		}
	}
	f.SetActiveSheet(0)

	path := filepath.Join(s.dir, utils.TimestampedFilename(FilePrefix, "xlsx", s.now()))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存结果文件失败: %w", err)
	}
	return path, nil
}

func writeRecords(f *excelize.File, records []models.Record) error {
	columns := models.Columns(records)

	header := make([]interface{}, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := setRow(f, SheetRecords, 1, header); err != nil {
		return err
	}

	for i, record := range records {
		row := make([]interface{}, len(columns))
		for j, name := range columns {
			value, _ := record.Get(name)
			row[j] = truncate(value)
		}
		if err := setRow(f, SheetRecords, i+2, row); err != nil {
			return err
		}
	}

	// 冻结表头
	return f.SetPanes(SheetRecords, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeMissed(f *excelize.File, urls []string) error {
	if err := setRow(f, SheetMissed, 1, []interface{}{"URL"}); err != nil {
		return err
	}
	for i, url := range urls {
		if err := setRow(f, SheetMissed, i+2, []interface{}{url}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("写入 %s 第%d行失败: %w", sheet, row, err)
	}
	return nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellLength {
		return s
	}
	return string(r[:maxCellLength])
}
