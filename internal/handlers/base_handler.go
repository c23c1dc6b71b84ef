package handlers

import (
	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/logger"
	"hqchat_backend/internal/middleware"
	"hqchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// BaseHandler - общие методы для всех обработчиков.
type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// GetPrincipal достаёт принципала, положенного auth-middleware.
// Отсутствие - ошибка конфигурации роутов.
func (h *BaseHandler) GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		logger.Error("Principal missing in context", "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.ErrCredentialMissing)
		return nil, false
	}
	return principal, true
}

// BindJSON биндит и валидирует тело запроса.
func (h *BaseHandler) BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		apperrors.HandleError(c, apperrors.ValidationError(err.Error()))
		return false
	}
	return true
}
