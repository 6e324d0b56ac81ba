package utils

import (
	"fmt"
	"os"
	"time"
)

// TimestampLayout 输出文件名中的时间格式
const TimestampLayout = "20060102_150405"

// TimestampedFilename 生成 prefix_YYYYmmdd_HHMMSS.ext 形式的文件名
func TimestampedFilename(prefix string, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format(TimestampLayout), ext)
}

// EnsureDir 确保目录存在
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("目录路径不能为空")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
	}
	return nil
}
