package apperror

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

type messageTable struct {
	Messages map[Code]string `yaml:"messages"`
}

var (
	ErrStrMap   map[Code]string
	loadOnce    sync.Once
	genericText = "Something went wrong. Please try again."
)

// LoadMessages 解析訊息表，供測試與其他來源共用
func LoadMessages(data []byte) (map[Code]string, error) {
	table := &messageTable{}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("failed to parse message table: %w", err)
	}
	if len(table.Messages) == 0 {
		return nil, fmt.Errorf("message table is empty")
	}
	return table.Messages, nil
}

func messages() map[Code]string {
	loadOnce.Do(func() {
		m, err := LoadMessages(messagesYAML)
		if err != nil {
			// 內嵌檔案有問題屬於編譯期錯誤，退回空表並使用通用訊息
			m = map[Code]string{}
		}
		ErrStrMap = m
	})
	return ErrStrMap
}

// FallbackMessage 查無 code 時使用 INTERNAL_ERROR 的訊息
func FallbackMessage(code Code) string {
	m := messages()
	if msg, ok := m[code]; ok {
		return msg
	}
	if msg, ok := m[InternalErrorCode]; ok {
		return msg
	}
	return genericText
}
