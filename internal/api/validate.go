package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"IntentChain/internal/assist"
)

const (
	maxMessages       = 50
	maxContentLength  = 8000
	maxRequestBodyLen = 1 << 20
)

// decodeRequest 解析并校验请求体。返回的 issues 非空时应响应 400。
func decodeRequest(r *http.Request) (assist.Request, []string, error) {
	var req assist.Request
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodyLen))
	if err := decoder.Decode(&req); err != nil {
		return assist.Request{}, nil, err
	}
	return req, validateRequest(req), nil
}

// validateRequest 做结构化校验，错误以问题列表形式返回，绝不静默修复。
func validateRequest(req assist.Request) []string {
	var issues []string

	if len(req.Messages) == 0 || len(req.Messages) > maxMessages {
		issues = append(issues, fmt.Sprintf("messages must contain between 1 and %d entries", maxMessages))
		return issues
	}

	for i, msg := range req.Messages {
		if msg.Role != "user" && msg.Role != "assistant" {
			issues = append(issues, fmt.Sprintf("messages[%d].role must be \"user\" or \"assistant\"", i))
		}
		if len(msg.Content) == 0 {
			issues = append(issues, fmt.Sprintf("messages[%d].content must not be empty", i))
		} else if len(msg.Content) > maxContentLength {
			issues = append(issues, fmt.Sprintf("messages[%d].content exceeds %d characters", i, maxContentLength))
		}
	}

	return issues
}
