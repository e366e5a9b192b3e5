package util

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var (
	upperLetter = regexp.MustCompile(`([A-Z])`)
	underscored = regexp.MustCompile(`_([a-z0-9])`)
)

// ToSnake firstName => first_name，已是 snake_case 的 key 不變
func ToSnake(key string) string {
	return strings.ToLower(upperLetter.ReplaceAllString(key, "_$1"))
}

// ToCamel first_name => firstName
func ToCamel(key string) string {
	return underscored.ReplaceAllStringFunc(key, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// ConvertKeys 遞迴轉換所有 map key，陣列內的物件也一併處理
func ConvertKeys(v any, convert func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[convert(k)] = ConvertKeys(val, convert)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ConvertKeys(val, convert)
		}
		return out
	default:
		return v
	}
}

// DecodeJSON 數字保留為 json.Number，避免金額精度遺失
func DecodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// SnakeCaseJSON 將任意值序列化後把 key 轉成 snake_case
func SnakeCaseJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	generic, err := DecodeJSON(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ConvertKeys(generic, ToSnake))
}

// CamelCaseJSON 將 snake_case 的 json 轉成 camelCase
func CamelCaseJSON(data []byte) ([]byte, error) {
	generic, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ConvertKeys(generic, ToCamel))
}
