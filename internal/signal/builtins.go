package signal

// builtinDefinitions are the profiles every deployment understands.
// Labels follow the vocabulary of the supported exchange exports:
// 매수 buy, 진입 entry, 추가 add-on, 물타기 averaging down,
// 롱 long, 숏 short, 청산 close-out.
func builtinDefinitions() []Definition {
	return []Definition{
		{
			Name:     "plain",
			Mode:     "substring",
			BuyToken: "매수",
		},
		{
			Name:  "atm",
			Mode:  "whitelist",
			Opens: []string{"ATM 1차 매수"},
			Adds:  []string{"ATM 2차 매수", "ATM 3차 매수", "ATM 추가 매수"},
		},
		{
			Name:  "brm",
			Mode:  "whitelist",
			Opens: []string{"BRM 진입", "BRM 1차 진입"},
			Adds:  []string{"BRM 추가 진입", "BRM 물타기"},
		},
		{
			Name:        "pattern",
			Mode:        "pattern",
			OpenTokens:  []string{"롱 진입", "숏 진입", "신규 진입"},
			AddTokens:   []string{"추가 진입", "물타기"},
			LongTokens:  []string{"롱"},
			ShortTokens: []string{"숏"},
			ExitLong:    []string{"롱 청산"},
			ExitShort:   []string{"숏 청산"},
		},
		{
			Name:        "all_kill",
			Mode:        "all_kill",
			OpenTokens:  []string{"롱 진입", "숏 진입"},
			AddTokens:   []string{"추가", "물타기"},
			LongTokens:  []string{"롱"},
			ShortTokens: []string{"숏"},
		},
	}
}
