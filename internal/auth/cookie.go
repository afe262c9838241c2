package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName はセッショントークンを運ぶクッキー名です。
	SessionCookieName = "tk_session"
	sessionKeyToken   = "sid"
)

// CookieOptions はセッションクッキーの属性です。
type CookieOptions struct {
	Secret []byte
	MaxAge int  // 秒
	Secure bool // HTTPS 配信時は true にする
}

// CookieSessions は署名付きクッキーを扱うミドルウェアを返します。
// クッキーに入るのは不透明なトークンのみで、ユーザー情報はセッションストア側に置きます。
func CookieSessions(opts CookieOptions) gin.HandlerFunc {
	store := cookie.NewStore(opts.Secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionCookieName, store)
}

// tokenFrom はリクエストのクッキーからセッショントークンを取り出します。
func tokenFrom(c *gin.Context) string {
	token, _ := sessions.Default(c).Get(sessionKeyToken).(string)
	return token
}

func saveToken(c *gin.Context, token string) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(sessionKeyToken, token)
	return s.Save()
}

func clearToken(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.Save()
}
