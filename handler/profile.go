package handler

import (
	"Tianji/config"
	"Tianji/middleware"
	"Tianji/pkg/context"
	"Tianji/pkg/response"
	"Tianji/service"
	"Tianji/types"

	"github.com/gin-gonic/gin"
)

type Profile struct {
	Config              *config.Config
	CompletenessService service.ICompletenessService
	WalletService       service.IWalletService
}

func (p *Profile) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(p.Config.Jwt.Secret))
	profile := r.Group("/v1/profile", authorize)
	{
		profile.PUT("", context.Wrap(p.Update))
		profile.GET("/completeness", context.Wrap(p.Completeness))
		profile.POST("/registration-bonus", context.Wrap(p.RegistrationBonus))
	}
}

// Update 更新资料字段，完整度奖励在服务端按差值结算
func (p *Profile) Update(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	var req types.UpdateCompletenessReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	resp, err := p.CompletenessService.UpdateFields(c.Request.Context(), userID, &req)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

func (p *Profile) Completeness(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	resp, err := p.CompletenessService.Status(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

// RegistrationBonus 领取注册奖励，重复领取静默幂等
func (p *Profile) RegistrationBonus(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	if err := p.WalletService.GrantRegistrationBonus(c.Request.Context(), userID); err != nil {
		return err
	}
	balance, err := p.WalletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	response.Success(c, balance)
	return nil
}
