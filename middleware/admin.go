package middleware

import (
	"net/http"

	"Tianji/dao"
	"Tianji/pkg/context"
	"Tianji/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminOnly 管理员路由门禁，每次请求都查库验证，不信任令牌里的任何角色声明
func AdminOnly(userDAO *dao.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := context.GetUserID(c)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "未登录")
			return
		}

		isAdmin, err := userDAO.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			response.Abort(c, http.StatusInternalServerError, "权限校验失败")
			return
		}
		if !isAdmin {
			response.Abort(c, http.StatusForbidden, "无管理员权限")
			return
		}

		c.Next()
	}
}
