// Package httpx は各ハンドラーで共通に使うレスポンス処理とミドルウェアを提供します。
package httpx

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-keeper/internal/apperr"
)

// RespondError は err を {"code", "message"} 形式の JSON で返します。
// 500 系はリクエストIDと経路を添えてログに残します。
func RespondError(c *gin.Context, logger *log.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Printf("request_id=%s %s %s failed: %v", RequestIDFrom(c), c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"code":    apperr.KindOf(err),
		"message": apperr.PublicMessage(err),
	})
}

// AbortWithError は RespondError と同じ形式で応答し、後続のハンドラーを止めます。
func AbortWithError(c *gin.Context, logger *log.Logger, err error) {
	RespondError(c, logger, err)
	c.Abort()
}
