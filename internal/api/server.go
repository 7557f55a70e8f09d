package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"IntentChain/internal/assist"
	xerrors "IntentChain/internal/errors"
	"IntentChain/internal/middleware"
	"IntentChain/pkg/logger"
)

const defaultKeepAliveInterval = 15 * time.Second

const (
	defaultPlanListLimit = 20
	maxPlanListLimit     = 100
)

// Server 负责暴露 REST 接口，供前端驱动意图解析与交易构建。
type Server struct {
	addr      string
	svc       *assist.Service
	limiter   middleware.Limiter
	keepAlive time.Duration
	log       *slog.Logger
}

// Option 定义可选的 Server 配置。
type Option func(*Server)

// WithLimiter 配置请求限流器，/health 不受其约束。
func WithLimiter(limiter middleware.Limiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// WithKeepAliveInterval 覆盖流式连接的心跳间隔。
func WithKeepAliveInterval(interval time.Duration) Option {
	return func(s *Server) {
		if interval > 0 {
			s.keepAlive = interval
		}
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, svc *assist.Service, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		svc:       svc,
		keepAlive: defaultKeepAliveInterval,
		log:       logger.Named("api"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Router 组装路由。健康检查挂在限流组之外。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(middleware.RateLimit(s.limiter))
		}
		r.Post("/chat", s.handleChat)
		r.Post("/chat/stream", s.handleChatStream)
		r.Get("/plans", s.handlePlans)
	})

	return r
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleChat 处理同步的意图解析请求。
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, issues, err := decodeRequest(r)
	if err != nil || len(issues) > 0 {
		writeBadRequest(w, issues)
		return
	}

	plan, err := s.svc.Respond(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// handlePlans 返回最近生成的计划记录。limit 超出上限时静默收紧。
func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	limit := defaultPlanListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPlanListLimit {
		limit = maxPlanListLimit
	}

	records, err := s.svc.RecentPlans(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// writeServiceError 把统一错误类型映射为结构化的 HTTP 错误响应。
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	code := xerrors.CodeOf(err)
	status := http.StatusInternalServerError
	if code == xerrors.CodeInvalidArgument {
		status = http.StatusBadRequest
	}

	message := err.Error()
	if e, ok := xerrors.From(err); ok {
		message = e.Message()
	}
	s.log.Error("请求处理失败", "code", code, "err", err)
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBadRequest(w http.ResponseWriter, issues []string) {
	if len(issues) == 0 {
		issues = []string{"request body is not valid JSON"}
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "BAD_REQUEST",
		"issues": issues,
	})
}
