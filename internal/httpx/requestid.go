package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエストIDを受け渡すヘッダー名です。
const RequestIDHeader = "X-Request-Id"

const contextRequestIDKey = "httpx.request_id"

// RequestID はリクエストごとにIDを割り当てるミドルウェアです。
// クライアントが妥当な UUID を送ってきた場合はそれを引き継ぎます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom は RequestID ミドルウェアが設定したIDを返します。
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(contextRequestIDKey)
}
