package handler

import (
	"Tianji/config"
	"Tianji/middleware"
	"Tianji/pkg/context"
	"Tianji/pkg/response"
	"Tianji/service"

	"github.com/gin-gonic/gin"
)

type Checkin struct {
	Config         *config.Config
	CheckinService service.ICheckinService
}

func (h *Checkin) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(h.Config.Jwt.Secret))
	checkin := r.Group("/v1/checkin", authorize)
	{
		checkin.POST("", context.Wrap(h.CheckIn))
		checkin.GET("/status", context.Wrap(h.Status))
	}
}

func (h *Checkin) CheckIn(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	resp, err := h.CheckinService.CheckIn(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

func (h *Checkin) Status(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	resp, err := h.CheckinService.GetStatus(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}
