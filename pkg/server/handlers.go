package server

import (
	"Tianji/handler"
)

type Handlers struct {
	Wallet  *handler.Wallet
	Checkin *handler.Checkin
	Pay     *handler.Pay
	Profile *handler.Profile
	Admin   *handler.Admin
}
