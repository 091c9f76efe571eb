package domain

// FundamentalsSnapshot is the point-in-time fundamental picture of a ticker
// as returned by the market data source. Any ratio the vendor could not
// provide is carried as an invalid Opt, never as zero.
type FundamentalsSnapshot struct {
	Ticker        string `json:"ticker"`
	Sector        string `json:"sector"`
	PERatio       Opt    `json:"pe_ratio"`
	PEGRatio      Opt    `json:"peg_ratio"`
	DebtToEquity  Opt    `json:"debt_to_equity"`
	RevenueGrowth Opt    `json:"revenue_growth"` // YoY fraction, 0.12 = +12%
	MarketCap     Opt    `json:"market_cap"`
}
