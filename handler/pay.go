package handler

import (
	"Tianji/config"
	"Tianji/middleware"
	"Tianji/models"
	"Tianji/pkg/context"
	"Tianji/pkg/log"
	"Tianji/pkg/response"
	"Tianji/service"
	"Tianji/types"
	base "context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/jsapi"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
	"go.uber.org/zap"
)

type Pay struct {
	WechatPayConfig *config.WechatPayConfig
	Config          *config.Config
	PayService      service.IPayService
	wechatClient    *core.Client
	MchPrivateKey   *rsa.PrivateKey
}

func (p *Pay) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(p.Config.Jwt.Secret))
	pay := r.Group("/v1/pay")
	{
		pay.POST("/orders", authorize, context.Wrap(p.CreateOrder))
		pay.GET("/orders/:order_sn", authorize, context.Wrap(p.GetOrder))
		pay.POST("/notify", context.Wrap(p.Notify)) // 微信支付回调
		if p.Config.Debug() {
			// 联调用的模拟结算，线上配置不挂载
			pay.POST("/orders/:order_sn/mock-settle", authorize, context.Wrap(p.MockSettle))
		}
	}
}

// NewPay 创建支付处理器，微信商户凭证缺失时降级为仅支持下单与模拟结算
func NewPay(cfg *config.Config, payService service.IPayService) *Pay {
	p := &Pay{
		WechatPayConfig: cfg.WechatPayConfig,
		Config:          cfg,
		PayService:      payService,
	}

	if err := p.initWechatClient(); err != nil {
		log.L.Warn("init wechat client failed", zap.Error(err))
	}
	return p
}

func (p *Pay) initWechatClient() error {
	if p.WechatPayConfig == nil || p.WechatPayConfig.MchID == "" {
		return fmt.Errorf("微信支付未配置")
	}

	mchPrivateKey, err := utils.LoadPrivateKeyWithPath(p.WechatPayConfig.MchPrivateKeyPath)
	if err != nil {
		return fmt.Errorf("加载商户私钥失败: %w", err)
	}
	p.MchPrivateKey = mchPrivateKey

	opts := []core.ClientOption{
		option.WithWechatPayAutoAuthCipher(
			p.WechatPayConfig.MchID,
			p.WechatPayConfig.MchCertificateSerialNumber,
			mchPrivateKey,
			p.WechatPayConfig.MchAPIv3Key,
		),
	}

	client, err := core.NewClient(base.Background(), opts...)
	if err != nil {
		return fmt.Errorf("创建微信支付客户端失败: %w", err)
	}
	p.wechatClient = client
	return nil
}

func (p *Pay) CreateOrder(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	var req types.CreateOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	ctx := c.Request.Context()
	order, err := p.PayService.CreateOrder(ctx, userID, req.PackType)
	if err != nil {
		return err
	}

	resp := &types.CreateOrderResp{Order: order}
	if req.OpenID != "" && p.wechatClient != nil {
		payParams, err := p.prepay(ctx, order, req.OpenID)
		if err != nil {
			log.L.Error("微信预下单失败", zap.String("order_sn", order.OrderSn), zap.Error(err))
			return response.NewError(500, "微信下单失败")
		}
		resp.PayParams = payParams
	}
	response.Success(c, resp)
	return nil
}

// prepay 调用微信 JSAPI 预下单，返回前端唤起支付所需的参数
func (p *Pay) prepay(ctx base.Context, order *types.OrderResp, openID string) (*jsapi.PrepayWithRequestPaymentResponse, error) {
	svc := jsapi.JsapiApiService{Client: p.wechatClient}
	resp, _, err := svc.PrepayWithRequestPayment(ctx, jsapi.PrepayRequest{
		Appid:       core.String(p.WechatPayConfig.AppID),
		Mchid:       core.String(p.WechatPayConfig.MchID),
		Description: core.String(fmt.Sprintf("充值币包: %s", order.PackType)),
		OutTradeNo:  core.String(order.OrderSn),
		NotifyUrl:   core.String(p.WechatPayConfig.NotifyURL),
		Amount: &jsapi.Amount{
			Total: core.Int64(order.Amount),
		},
		Payer: &jsapi.Payer{
			Openid: core.String(openID),
		},
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *Pay) GetOrder(c *gin.Context) error {
	userID, err := context.GetUserID(c)
	if err != nil {
		return response.NewError(401, "未登录")
	}

	orderSn := c.Param("order_sn")
	if orderSn == "" {
		return response.NewError(400, "订单号不能为空")
	}

	resp, err := p.PayService.GetOrder(c.Request.Context(), userID, orderSn)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

// Notify 微信支付回调：验签解密后交给结算状态机，重复通知由状态机幂等消化
func (p *Pay) Notify(c *gin.Context) error {
	ctx := c.Request.Context()
	if p.wechatClient == nil {
		return response.NewError(500, "支付渠道未就绪")
	}

	certificateVisitor := downloader.MgrInstance().GetCertificateVisitor(p.WechatPayConfig.MchID)
	handler, err := notify.NewRSANotifyHandler(p.WechatPayConfig.MchAPIv3Key, verifiers.NewSHA256WithRSAVerifier(certificateVisitor))
	if err != nil {
		log.L.Error("创建微信支付回调处理器失败", zap.Error(err))
		return response.NewError(500, err.Error())
	}

	transaction := new(payments.Transaction)
	if _, err := handler.ParseNotifyRequest(ctx, c.Request, transaction); err != nil {
		log.L.Error("微信支付回调验签或解密失败", zap.Error(err))
		return response.NewError(500, err.Error())
	}

	if transaction.OutTradeNo == nil || transaction.TradeState == nil {
		return response.NewError(400, "回调缺少订单信息")
	}

	status := models.TxStatusFailed
	if *transaction.TradeState == "SUCCESS" {
		status = models.TxStatusCompleted
	}

	var paidAt *time.Time
	if transaction.SuccessTime != nil {
		if ts, err := time.Parse(time.RFC3339, *transaction.SuccessTime); err == nil {
			paidAt = &ts
		}
	}
	raw, _ := json.Marshal(transaction)

	result, err := p.PayService.HandleCallback(ctx, *transaction.OutTradeNo, status, "wechat", paidAt, raw)
	if err != nil {
		log.L.Error("处理支付回调失败", zap.String("order_sn", *transaction.OutTradeNo), zap.Error(err))
		return err
	}
	response.Success(c, result)
	return nil
}

// MockSettle 模拟结算，仅 debug 环境挂载
func (p *Pay) MockSettle(c *gin.Context) error {
	if _, err := context.GetUserID(c); err != nil {
		return response.NewError(401, "未登录")
	}

	orderSn := c.Param("order_sn")
	var req types.MockSettleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(400, "参数错误: "+err.Error())
	}

	result, err := p.PayService.MockSettle(c.Request.Context(), orderSn, req.Success)
	if err != nil {
		return err
	}
	response.Success(c, result)
	return nil
}
