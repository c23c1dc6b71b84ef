package middleware

import (
	"net/http"
	"strings"

	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/config"
	"hqchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthMiddleware - проверка JWT на HTTP-запросах. Резолвит принципала
// один раз и кладёт его в контекст запроса.
func AuthMiddleware(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerFromHeader(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.ErrorResponse{Error: apperrors.ErrCredentialMissing})
			return
		}

		principal, err := resolver.ResolveBearer(token)
		if err != nil {
			appErr, _ := apperrors.AsAppError(err)
			if appErr == nil {
				appErr = apperrors.ErrSignatureInvalid
			}
			c.AbortWithStatusJSON(appErr.HTTPCode, apperrors.ErrorResponse{Error: appErr})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// GetPrincipal извлекает принципала из контекста Gin.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	val, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := val.(*auth.Principal)
	return principal, ok
}

// BearerFromHandshake достаёт bearer-токен из запроса на websocket
// рукопожатие. Браузерные клиенты не могут выставлять произвольные
// заголовки при апгрейде, поэтому источник задаётся конфигурацией:
// заголовок, query-параметр "token" или оба.
func BearerFromHandshake(r *http.Request, source string) (string, bool) {
	if source == config.TokenSourceHeader || source == config.TokenSourceBoth {
		if token, ok := bearerFromHeader(r); ok {
			return token, true
		}
	}
	if source == config.TokenSourceQuery || source == config.TokenSourceBoth {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func bearerFromHeader(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}
