package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList 是存储在 TEXT 列中的 JSON 字符串数组。
// 抽取和总结结果中的列表字段 (risks/gaps/decisions 等) 都使用该类型，
// 避免为每个列表单独建表。
type StringList []string

// Value 实现 driver.Valuer，序列化为 JSON 字符串写入数据库。
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	bytes, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(bytes), nil
}

// Scan 实现 sql.Scanner，从数据库读出的 JSON 字符串反序列化。
// 空值解析为空列表而不是 nil，方便调用方直接 range。
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal(raw, l); err != nil {
		return fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return nil
}

// GormDataType 告知 GORM 迁移时使用的列类型。
func (StringList) GormDataType() string {
	return "text"
}
