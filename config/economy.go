package config

// CoinPack 充值币包：pack_type -> 法币价格（分）与到账币数
type CoinPack struct {
	PackType string `yaml:"pack_type"`
	Amount   int64  `yaml:"amount"` // 单位：分
	Coins    int64  `yaml:"coins"`
}

// Economy 天机币经济参数，不配则用默认档
type Economy struct {
	RegistrationBonus int64      `yaml:"registration_bonus"`
	CoinPacks         []CoinPack `yaml:"coin_packs"`
}

func DefaultEconomy() *Economy {
	return &Economy{
		RegistrationBonus: 300,
		CoinPacks: []CoinPack{
			{PackType: "pack_60", Amount: 600, Coins: 60},
			{PackType: "pack_300", Amount: 3000, Coins: 330},
			{PackType: "pack_680", Amount: 6800, Coins: 780},
			{PackType: "pack_1280", Amount: 12800, Coins: 1580},
		},
	}
}

// FindPack 按 pack_type 查币包
func (e *Economy) FindPack(packType string) *CoinPack {
	for i := range e.CoinPacks {
		if e.CoinPacks[i].PackType == packType {
			return &e.CoinPacks[i]
		}
	}
	return nil
}
