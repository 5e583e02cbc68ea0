package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeModelJSON 从模型返回的文本里抠出 JSON 并解析进 out
// 即使模型返回 "```json { ... } \n ```"，也能精准截取中间的 { ... }
func DecodeModelJSON(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start == -1 || end == -1 || end <= start {
		return NewError(ErrCodeBackendFailure,
			fmt.Sprintf("无法提取 JSON, 模型原文: %s", raw))
	}

	cleanJSON := raw[start : end+1]
	if err := json.Unmarshal([]byte(cleanJSON), out); err != nil {
		return WrapError(ErrCodeBackendFailure,
			fmt.Sprintf("JSON 解析失败, 原文: %s", cleanJSON), err)
	}
	return nil
}
