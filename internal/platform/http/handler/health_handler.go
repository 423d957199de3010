// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout は依存先ごとの確認時間の上限です。
const checkTimeout = 2 * time.Second

// Check は依存先（DB、Redisなど）の疎通確認です。nil を返せば正常です。
type Check func(ctx context.Context) error

// HealthHandler は /healthz を処理します。登録された依存先が1つでも落ちていれば503を返します。
type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler は名前付きの疎通確認を持つ HealthHandler を生成します。nil の Check は無視されます。
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	cs := make(map[string]Check, len(checks))
	for name, c := range checks {
		if c != nil {
			cs[name] = c
		}
	}
	return &HealthHandler{checks: cs}
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	// OPTIONS は依存先を見ない
	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	failures := h.run(c.Request.Context())
	status := http.StatusOK
	if len(failures) > 0 {
		status = http.StatusServiceUnavailable
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	if len(failures) > 0 {
		c.JSON(status, gin.H{"status": "unavailable", "failures": failures})
		return
	}
	c.JSON(status, gin.H{"status": "ok"})
}

func (h *HealthHandler) run(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failures map[string]string
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := h.checks[name](cctx)
		cancel()
		if err != nil {
			if failures == nil {
				failures = make(map[string]string)
			}
			failures[name] = err.Error()
		}
	}
	return failures
}
