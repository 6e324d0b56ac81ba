package models

import "encoding/json"

// Field 记录中的一个命名字段
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record 从一个标识符页面提取出的有序字段集合
// 产生后不再修改,由控制器的累积缓冲区持有直至汇总
type Record struct {
	Identifier string  `json:"identifier"`
	URL        string  `json:"url"`
	Fields     []Field `json:"fields"`
}

// NewRecord 创建记录
func NewRecord(identifier, url string, fields []Field) Record {
	copied := make([]Field, len(fields))
	copy(copied, fields)
	return Record{Identifier: identifier, URL: url, Fields: copied}
}

// Get 按名称查找字段值
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names 按顺序返回字段名
func (r Record) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// ToJSON 序列化为JSON
func (r Record) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Columns 合并多条记录的字段名,按首次出现顺序,保证列顺序稳定
func Columns(records []Record) []string {
	seen := make(map[string]bool)
	columns := make([]string, 0)
	for _, r := range records {
		for _, f := range r.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			columns = append(columns, f.Name)
		}
	}
	return columns
}
