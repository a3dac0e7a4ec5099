package handler

import (
	"Tianji/config"
	"Tianji/dao"
	"Tianji/middleware"
	"Tianji/pkg/context"
	"Tianji/pkg/response"
	"Tianji/service"
	"Tianji/types"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Admin struct {
	Config              *config.Config
	UserDAO             *dao.User
	AdminService        service.IAdminService
	WalletService       service.IWalletService
	SubscriptionService service.ISubscriptionService
	UpgradeService      service.IUpgradeService
}

func (a *Admin) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(a.Config.Jwt.Secret))
	admin := r.Group("/v1/admin", authorize, middleware.AdminOnly(a.UserDAO))
	{
		admin.POST("/coins/adjust", context.Wrap(a.Adjust))
		admin.POST("/coins/refund", context.Wrap(a.Refund))
		admin.POST("/subscriptions/upgrade", context.Wrap(a.UpgradeTier))
		admin.POST("/subscriptions/backpay/preview", context.Wrap(a.BackpayPreview))
		admin.GET("/coins/reconcile/:user_id", context.Wrap(a.Reconcile))
	}
}

func (a *Admin) Adjust(c *gin.Context) error {
	operatorID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	var req types.AdminAdjustReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	resp, err := a.AdminService.Adjust(c.Request.Context(), operatorID, req.UserID, req.Amount, req.Reason, req.Bucket)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

// Refund 功能失败退款：只能由管理员确认失败后发起，服务端还会再查一次库验权
func (a *Admin) Refund(c *gin.Context) error {
	operatorID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	var req types.RefundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	resp, err := a.WalletService.Refund(c.Request.Context(), operatorID, req.SourceSn, req.Reason)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

// UpgradeTier 变更用户订阅层级，升级自动触发签到奖励补发
func (a *Admin) UpgradeTier(c *gin.Context) error {
	if _, err := context.GetUserID(c); err != nil {
		return response.NewError(401, "未登录")
	}

	var req types.UpgradeTierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	resp, err := a.SubscriptionService.UpgradeTier(c.Request.Context(), req.UserID, req.Tier, req.DurationDays, req.AutoRenew)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

// BackpayPreview 补发试算，不落库，客服答疑用
func (a *Admin) BackpayPreview(c *gin.Context) error {
	var req types.BackpayPreviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	result, err := a.UpgradeService.Calculate(c.Request.Context(), req.UserID, req.OldTier, req.NewTier, time.Now())
	if err != nil {
		return err
	}
	response.Success(c, result)
	return nil
}

// Reconcile 单用户对账，排查余额争议用
func (a *Admin) Reconcile(c *gin.Context) error {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		return response.NewError(400, "user_id 错误")
	}

	balanced, diff, err := a.WalletService.Reconcile(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	response.Success(c, gin.H{"balanced": balanced, "diff": diff})
	return nil
}
