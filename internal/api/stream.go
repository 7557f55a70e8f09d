package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// handleChatStream 以事件流形式交付计划。每个成功连接严格按
// ready → plan → done 的顺序各发送一次事件，之后关闭连接；
// 事件之间可能出现仅作保活用途的注释行。
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, issues, err := decodeRequest(r)
	if err != nil || len(issues) > 0 {
		writeBadRequest(w, issues)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	stream := &eventStream{w: w, flusher: flusher}
	correlationID := uuid.NewString()
	stream.emit("ready", map[string]string{"id": correlationID})

	// 心跳在所有退出路径上都会被停止，包括客户端提前断开。
	stopKeepAlive := s.startKeepAlive(r.Context(), stream)
	defer stopKeepAlive()

	plan, err := s.svc.Respond(r.Context(), req)

	// 客户端已断开：取消进行中的工作并静默清理，不产生用户可见错误。
	if r.Context().Err() != nil {
		return
	}

	if err != nil {
		stream.emit("error", map[string]string{"message": "the assistant is temporarily unavailable"})
		s.log.Error("流式请求处理失败", "err", err, "correlation_id", correlationID)
		return
	}

	stream.emit("plan", plan)
	stream.emit("done", map[string]bool{"ok": true})
}

// startKeepAlive 启动固定间隔的注释行心跳，返回的函数保证
// 心跳协程退出后才返回，避免对已结束的响应继续写入。
func (s *Server) startKeepAlive(ctx context.Context, stream *eventStream) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.keepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stream.comment("keep-alive")
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return func() {
		close(stop)
		wg.Wait()
	}
}

// eventStream 串行化单个连接上的事件写入。并发连接之间互不影响，
// 连接内部由互斥锁保证事件与心跳不交错。
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (e *eventStream) emit(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", name, data)
	e.flusher.Flush()
}

func (e *eventStream) comment(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.w, ": %s\n\n", text)
	e.flusher.Flush()
}
