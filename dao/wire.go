//go:build wireinject

package dao

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewUser,
	NewTransaction,
	NewCheckIn,
	NewUpgradeBonus,
	NewCompleteness,
	NewSubscription,
)
