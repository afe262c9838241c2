package auth

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-keeper/internal/apperr"
	"github.com/yourusername/task-keeper/internal/httpx"
)

// Handler は /api/auth/* のハンドラーです。
type Handler struct {
	svc    *Service
	logger *log.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register は auth ルートを group に登録します。
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/signup", h.Signup)
	group.POST("/login", h.Login)
	group.POST("/logout", h.Logout)
	group.GET("/status", h.Status)
}

// Signup は POST /api/auth/signup のハンドラーです。
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.RespondError(c, h.logger, apperr.Validation(msgMissingFields))
		return
	}

	result, err := h.svc.Signup(c.Request.Context(), tokenFrom(c), req)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	if err := saveToken(c, result.Token); err != nil {
		httpx.RespondError(c, h.logger, apperr.Internal("Could not create session", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "User created successfully",
		"user_id":  result.Identity.UserID,
		"username": result.Identity.Username,
	})
}

// Login は POST /api/auth/login のハンドラーです。
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.RespondError(c, h.logger, apperr.Validation(msgMissingCredentials))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), tokenFrom(c), req)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	if err := saveToken(c, result.Token); err != nil {
		httpx.RespondError(c, h.logger, apperr.Internal("Login failed due to an internal error", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"user_id":  result.Identity.UserID,
		"username": result.Identity.Username,
	})
}

// Logout は POST /api/auth/logout のハンドラーです。
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), tokenFrom(c)); err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	if err := clearToken(c); err != nil {
		// サーバー側のセッションは破棄済みなので、クッキー削除の失敗はログのみ
		h.logger.Printf("logout: clear cookie: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Status は GET /api/auth/status のハンドラーです。常に 200 を返します。
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status(c.Request.Context(), tokenFrom(c)))
}
