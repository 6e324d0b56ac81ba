package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

// ValidateStart 验证起始标识符
func ValidateStart(text string) error {
	_, err := models.ParseIdentifier(text)
	if err != nil {
		return fmt.Errorf("无效的起始标识符: %w", err)
	}
	return nil
}

// PromptStart 交互读取起始标识符,格式不正确时重新提示
// 输入结束(EOF)前仍未得到合法值时返回 io.ErrUnexpectedEOF
func PromptStart(in io.Reader, out io.Writer) (string, error) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "请输入起始标识符 (例如 2025-00000): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			fmt.Fprintln(out)
			return "", io.ErrUnexpectedEOF
		}

		text := strings.TrimSpace(scanner.Text())
		if models.ValidateIdentifier(text) {
			return text, nil
		}
		fmt.Fprintf(out, "格式错误: %q, 应为 YYYY-NNNNN\n", text)
	}
}
