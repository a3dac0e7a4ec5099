//go:build wireinject
// +build wireinject

package main

import (
	"Tianji/config"
	"Tianji/dao"
	"Tianji/handler"
	"Tianji/pkg/client"
	"Tianji/pkg/database"
	"Tianji/pkg/server"
	"Tianji/service"

	"github.com/google/wire"
)

func InitServer(cfg *config.Config) *server.AppProvider {
	wire.Build(

		client.NewRedisClient,
		server.NewGinEngine,
		wire.Struct(new(handler.Wallet), "*"),
		wire.Struct(new(handler.Checkin), "*"),
		wire.Struct(new(handler.Profile), "*"),
		wire.Struct(new(handler.Admin), "*"),

		wire.Struct(new(server.AppProvider), "*"),
		wire.Struct(new(server.Handlers), "*"),

		dao.ProviderSet,

		service.ProviderSet,
		handler.NewPay,
		database.NewDB,
	)
	return nil
}
