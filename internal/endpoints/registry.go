package endpoints

import "sort"

// Query parameter names shared by several resources.
const (
	ParamFrom      = "from"
	ParamTo        = "to"
	ParamInterval  = "interval"
	ParamTimeFrame = "timeFrame"
	ParamDate      = "date"
	ParamCurrency  = "currency"
)

var currency = QueryParam{Name: ParamCurrency}

var registry = []Resource{
	// Coins
	{Key: "coins", Path: "coins", Kind: KindList, File: "coins", Qualifier: "all"},
	{Key: "coins_supported", Path: "coins/supported", Kind: KindList, File: "coins_supported", Qualifier: "all"},

	// Funding rounds
	{Key: "funding_rounds", Path: "fundingRounds", Kind: KindList, File: "fundingRounds", Qualifier: "all"},
	{Key: "funding_rounds_by_coin", Path: "fundingRounds/coin/{coinSlug}", Kind: KindDetail, Ident: IdentCoin,
		File: "fundingRounds_coin", WrapList: true},
	{Key: "funding_round", Path: "fundingRounds/{id}", Kind: KindDetail, Ident: IdentID, File: "fundingRound"},

	// Investors
	{Key: "investors", Path: "investors", Kind: KindList, File: "investors", Qualifier: "all"},
	{Key: "investor", Path: "investors/{investorSlug}", Kind: KindDetail, Ident: IdentInvestor, File: "investor"},

	// Token unlocks
	{Key: "token_unlocks", Path: "tokenUnlocks", Kind: KindList, File: "tokenUnlocks", Qualifier: "all"},
	{Key: "token_unlocks_supported", Path: "tokenUnlocks/supportedCoins", Kind: KindList,
		File: "tokenUnlocks_supportedCoins", Qualifier: "all"},
	{Key: "token_unlocks_by_coin", Path: "tokenUnlocks/{coinSlug}", Kind: KindDetail, Ident: IdentCoin, File: "tokenUnlocks"},
	{Key: "token_unlocks_chart", Path: "tokenUnlocks/chart/{coinSlug}", Kind: KindDetail, Ident: IdentCoin,
		File: "tokenUnlocks_chart"},

	// Crypto activities
	{Key: "crypto_activities", Path: "cryptoActivities", Kind: KindList, File: "cryptoActivities", Qualifier: "all"},
	{Key: "crypto_activities_by_coin", Path: "cryptoActivities/coin/{coinSlug}", Kind: KindList, Ident: IdentCoin,
		File: "cryptoActivities_coin"},
	{Key: "crypto_activity", Path: "cryptoActivities/{id}", Kind: KindDetail, Ident: IdentID, File: "cryptoActivity"},

	// Exchanges
	{Key: "exchanges", Path: "exchanges", Kind: KindList, File: "exchanges", Qualifier: "all"},
	{Key: "exchange", Path: "exchanges/{exchangeSlug}", Kind: KindDetail, Ident: IdentExchange, File: "exchange"},
	{Key: "exchange_pairs", Path: "exchanges/{exchangeSlug}/pairs", Kind: KindList, Ident: IdentExchange,
		File: "exchange_pairs"},

	// History
	{Key: "fear_index", Path: "coins/history/fear-index", Kind: KindDetail, File: "fear_index_history",
		Query: []QueryParam{
			{Name: ParamFrom, Required: true, Default: constant(FearIndexStart), Normalize: LocalDateTime},
			{Name: ParamTo, Required: true, Default: NowLocal, Normalize: LocalDateTime},
		}},
	{Key: "coin_price", Path: "coins/history/price/{slug}", Kind: KindDetail, Ident: IdentCoin, File: "coin_price",
		Query: []QueryParam{
			{Name: ParamDate, Required: true, Normalize: LocalDate},
			currency,
		}},
	{Key: "coin_chart_interval", Path: "coins/history/chart-by-interval/{slug}", Kind: KindDetail, Ident: IdentCoin,
		File: "coin_chart_interval",
		Query: []QueryParam{
			{Name: ParamFrom, Required: true, Normalize: LocalDateTime},
			{Name: ParamTo, Required: true, Default: NowLocal, Normalize: LocalDateTime},
			{Name: ParamInterval, Required: true, Default: constant("hour")},
			currency,
		}},
	{Key: "coin_chart_timeframe", Path: "coins/history/chart-by-timeframe/{slug}", Kind: KindDetail, Ident: IdentCoin,
		File: "coin_chart_timeframe",
		Query: []QueryParam{
			{Name: ParamTimeFrame, Required: true, Default: constant("DAY")},
			currency,
		}},
}

var byKey = func() map[string]Resource {
	m := make(map[string]Resource, len(registry))
	for _, r := range registry {
		m[r.Key] = r
	}
	return m
}()

// All returns every resource in definition order.
func All() []Resource {
	return append([]Resource(nil), registry...)
}

// Lookup returns the resource registered under key.
func Lookup(key string) (Resource, bool) {
	r, ok := byKey[key]
	return r, ok
}

// Keys returns the sorted resource keys.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for _, r := range registry {
		keys = append(keys, r.Key)
	}
	sort.Strings(keys)
	return keys
}
