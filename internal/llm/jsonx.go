package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON 从模型输出中提取JSON对象。
// 先整体解析，失败后截取首个 { 到末个 } 之间的内容重试，
// 以兼容模型在JSON前后附加说明文字或代码块标记的情况。
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("模型输出为空")
	}
	if gjson.Valid(trimmed) && strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("模型输出中不含JSON对象")
	}
	candidate := trimmed[start : end+1]
	if !gjson.Valid(candidate) {
		return "", fmt.Errorf("模型输出中的JSON无法解析")
	}
	return candidate, nil
}

// UnmarshalReply 提取JSON并反序列化到目标结构
func UnmarshalReply(text string, v any) error {
	payload, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("解析模型输出失败: %w", err)
	}
	return nil
}
