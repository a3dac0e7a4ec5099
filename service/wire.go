package service

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	wire.Struct(new(LedgerService), "*"),
	wire.Bind(new(ILedgerService), new(*LedgerService)),

	wire.Struct(new(WalletService), "*"),
	wire.Bind(new(IWalletService), new(*WalletService)),

	wire.Struct(new(PayService), "*"),
	wire.Bind(new(IPayService), new(*PayService)),

	wire.Struct(new(UpgradeService), "*"),
	wire.Bind(new(IUpgradeService), new(*UpgradeService)),

	wire.Struct(new(CompletenessService), "*"),
	wire.Bind(new(ICompletenessService), new(*CompletenessService)),

	wire.Struct(new(AdminService), "*"),
	wire.Bind(new(IAdminService), new(*AdminService)),

	wire.Struct(new(SubscriptionService), "*"),
	wire.Bind(new(ISubscriptionService), new(*SubscriptionService)),

	NewCheckinService,
	wire.Bind(new(ICheckinService), new(*CheckinService)),
)
