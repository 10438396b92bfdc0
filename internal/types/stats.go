package types

// TradeResult aggregates the per-round-trip outcomes of a run. One round
// trip is one sell fill; its pnl already nets out the entry side.
type TradeResult struct {
	NumberOfTrades        int64   `yaml:"number_of_trades" json:"number_of_trades"`
	NumberOfWinningTrades int64   `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	NumberOfLosingTrades  int64   `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	WinRate               float64 `yaml:"win_rate" json:"win_rate"`
}
