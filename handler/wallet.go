package handler

import (
	"Tianji/config"
	"Tianji/middleware"
	"Tianji/pkg/context"
	"Tianji/pkg/response"
	"Tianji/service"
	"Tianji/types"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Wallet struct {
	Config        *config.Config
	WalletService service.IWalletService
}

func (w *Wallet) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(w.Config.Jwt.Secret))
	wallet := r.Group("/v1/wallet", authorize)
	{
		wallet.GET("/balance", context.Wrap(w.Balance))
		wallet.POST("/deduct", context.Wrap(w.Deduct))
		wallet.GET("/transactions", context.Wrap(w.Transactions))
	}
}

func (w *Wallet) Balance(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	resp, err := w.WalletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

func (w *Wallet) Deduct(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	var req types.DeductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	resp, err := w.WalletService.Deduct(c.Request.Context(), userID, req.ItemType, req.Price)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

func (w *Wallet) Transactions(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	action := c.Query("action") // income / expense / 空为全部
	cursor, _ := strconv.ParseInt(c.DefaultQuery("cursor", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	resp, err := w.WalletService.ListTransactions(c.Request.Context(), userID, action, cursor, limit)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}
