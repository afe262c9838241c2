package auth

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-keeper/internal/httpx"
	"github.com/yourusername/task-keeper/internal/session"
)

// ContextIdentityKey はログイン済みの操作主体をハンドラー間で共有するためのキーです。
const ContextIdentityKey = "auth.identity"

// RequireSession はセッションを検証するミドルウェアを返します。
// 有効なセッションがなければ 401 で打ち切ります。
func RequireSession(svc *Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := svc.Authenticate(c.Request.Context(), tokenFrom(c))
		if err != nil {
			httpx.AbortWithError(c, logger, err)
			return
		}
		c.Set(ContextIdentityKey, id)
		c.Next()
	}
}

// IdentityFrom は RequireSession が設定した操作主体を返します。未設定なら nil です。
func IdentityFrom(c *gin.Context) *session.Identity {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*session.Identity)
	return id
}
