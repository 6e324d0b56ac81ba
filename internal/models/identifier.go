package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// IdentifierSeparator 年份段与编号段之间的分隔符
	IdentifierSeparator = "-"

	// YearWidth 年份段固定宽度
	YearWidth = 4
)

// ErrMalformedIdentifier 标识符格式错误(应为 YYYY-N+, 例如 2025-00000)
var ErrMalformedIdentifier = errors.New("标识符格式错误")

var identifierPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]+$`)

// Identifier 漏洞标识符,形如 "2025-00042"
// Number 保留原始的前导零,递增后宽度不变(除非需要进位到更多位数)
type Identifier struct {
	Year   string
	Number string
}

// ValidateIdentifier 检查文本是否为合法标识符
func ValidateIdentifier(text string) bool {
	return identifierPattern.MatchString(text)
}

// ParseIdentifier 解析并校验标识符
func ParseIdentifier(text string) (Identifier, error) {
	if !ValidateIdentifier(text) {
		return Identifier{}, fmt.Errorf("%w: %q (示例: 2025-00000)", ErrMalformedIdentifier, text)
	}
	year, number, _ := strings.Cut(text, IdentifierSeparator)
	return Identifier{Year: year, Number: number}, nil
}

// IncrementIdentifier 将文本形式的标识符加一
func IncrementIdentifier(text string) (string, error) {
	id, err := ParseIdentifier(text)
	if err != nil {
		return "", err
	}
	next, err := id.Next()
	if err != nil {
		return "", err
	}
	return next.String(), nil
}

// String 返回 "YYYY-NNNN" 形式
func (id Identifier) String() string {
	return id.Year + IdentifierSeparator + id.Number
}

// IsZero 是否为零值
func (id Identifier) IsZero() bool {
	return id.Year == "" && id.Number == ""
}

// Next 返回编号段加一后的标识符
// 按十进制逐位进位,保持原宽度; 全为9时宽度加一 ("999" -> "1000")
func (id Identifier) Next() (Identifier, error) {
	if !ValidateIdentifier(id.String()) {
		return Identifier{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, id.String())
	}

	digits := []byte(id.Number)
	i := len(digits) - 1
	for ; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			break
		}
		digits[i] = '0'
	}
	if i < 0 {
		digits = append([]byte{'1'}, digits...)
	}

	return Identifier{Year: id.Year, Number: string(digits)}, nil
}

// Less 同一年份内按数值比较编号
func (id Identifier) Less(other Identifier) bool {
	if id.Year != other.Year {
		return id.Year < other.Year
	}
	a := strings.TrimLeft(id.Number, "0")
	b := strings.TrimLeft(other.Number, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
