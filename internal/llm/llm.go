package llm

import "context"

// Message 表示一轮对话消息。
type Message struct {
	Role    string
	Content string
}

// Request 描述发送给大模型的补全请求。
type Request struct {
	Messages    []Message
	Temperature float32
	// ForceJSON 要求模型返回单个 JSON 对象而非自由文本。
	ForceJSON bool
}

// Client 定义了调用大模型的统一接口。实现返回模型的原始文本输出，
// 结构化解析由上层的规划器完成。
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
