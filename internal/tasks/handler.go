package tasks

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-keeper/internal/apperr"
	"github.com/yourusername/task-keeper/internal/httpx"
	"github.com/yourusername/task-keeper/internal/session"
)

// IdentityFunc はリクエストから操作主体を取り出す関数です。
// 認証ミドルウェアを通っていない場合は nil を返します。
type IdentityFunc func(c *gin.Context) *session.Identity

// Handler は /api/tasks のハンドラーです。
type Handler struct {
	svc      *Service
	identity IdentityFunc
	logger   *log.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service, identity IdentityFunc, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{svc: svc, identity: identity, logger: logger}
}

// Register はタスクのルートを group に登録します。group には認証ミドルウェアを付けておきます。
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/tasks", h.Create)
	group.GET("/tasks", h.List)
	group.PUT("/tasks/:id", h.Update)
	group.DELETE("/tasks/:id", h.Delete)
}

// Create は POST /api/tasks のハンドラーです。
func (h *Handler) Create(c *gin.Context) {
	actor := h.identity(c)
	if actor == nil {
		httpx.RespondError(c, h.logger, apperr.Unauthorized(msgAuthRequired))
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, h.logger, apperr.Validation(msgInvalidBody))
		return
	}

	id, err := h.svc.Create(c.Request.Context(), actor, in)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created",
		"task_id": id,
	})
}

// List は GET /api/tasks のハンドラーです。
func (h *Handler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), h.identity(c))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Update は PUT /api/tasks/:id のハンドラーです。
func (h *Handler) Update(c *gin.Context) {
	actor := h.identity(c)
	if actor == nil {
		httpx.RespondError(c, h.logger, apperr.Unauthorized(msgAuthRequired))
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		httpx.RespondError(c, h.logger, apperr.NotFound(msgNotFound))
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, h.logger, apperr.Validation(msgInvalidBody))
		return
	}

	if err := h.svc.Update(c.Request.Context(), actor, taskID, in); err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated"})
}

// Delete は DELETE /api/tasks/:id のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	actor := h.identity(c)
	if actor == nil {
		httpx.RespondError(c, h.logger, apperr.Unauthorized(msgAuthRequired))
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		httpx.RespondError(c, h.logger, apperr.NotFound(msgNotFound))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actor, taskID); err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// parseTaskID はパスの :id を正の整数として読み取ります。
func parseTaskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
