package core

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileLedger 基于文件的遗漏URL清单
// 每次Append都直接写入并fsync,进程崩溃后已写入的条目不会丢失
type FileLedger struct {
	path string

	file *os.File
	seen map[string]bool
	mu   sync.Mutex
}

// NewFileLedger 创建遗漏清单,path所在目录不存在时自动创建
func NewFileLedger(path string) (*FileLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("遗漏清单路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("创建遗漏清单目录失败: %w", err)
	}
	return &FileLedger{path: path, seen: make(map[string]bool)}, nil
}

// Path 返回清单文件路径
func (l *FileLedger) Path() string {
	return l.path
}

// Reset 截断清单文件,每次运行开始时调用
func (l *FileLedger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("重置遗漏清单失败 [%s]: %w", l.path, err)
	}
	l.file = f
	l.seen = make(map[string]bool)
	return nil
}

// Append 追加一条URL并同步到磁盘; 同一次运行中重复的URL被忽略
func (l *FileLedger) Append(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.ContainsAny(url, "\r\n") {
		return fmt.Errorf("URL包含换行符: %q", url)
	}
	if l.seen[url] {
		return nil
	}

	if l.file == nil {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("打开遗漏清单失败 [%s]: %w", l.path, err)
		}
		l.file = f
	}

	if _, err := l.file.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("写入遗漏清单失败: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("同步遗漏清单失败: %w", err)
	}

	l.seen[url] = true
	return nil
}

// ReadAll 按写入顺序读取全部条目
func (l *FileLedger) ReadAll() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("读取遗漏清单失败: %w", err)
	}
	defer f.Close()

	urls := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取遗漏清单失败: %w", err)
	}
	return urls, nil
}

// Close 关闭清单文件
func (l *FileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
