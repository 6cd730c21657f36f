package models

// Position represents one portfolio position with live valuation.
// When the backend has no recent price, current_price falls back to
// the average cost and the unrealized P&L is zero.
type Position struct {
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"`
	AverageCost     float64 `json:"average_cost"`
	CurrentPrice    float64 `json:"current_price"`
	CostBasis       float64 `json:"cost_basis"`
	MarketValue     float64 `json:"market_value"`
	UnrealizedPL    float64 `json:"unrealized_pl"`
	UnrealizedPLPct float64 `json:"unrealized_pl_pct"`
}

// PortfolioSummary represents the valued portfolio.
type PortfolioSummary struct {
	TotalMarketValue float64    `json:"total_market_value"`
	TotalCostBasis   float64    `json:"total_cost_basis"`
	TotalPL          float64    `json:"total_pl"`
	TotalPLPct       float64    `json:"total_pl_pct"`
	NumPositions     int        `json:"num_positions"`
	Positions        []Position `json:"positions"`
}

// AddPositionRequest is the payload for creating a position.
type AddPositionRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// AddPositionResult is the reply from adding shares to a position.
type AddPositionResult struct {
	Status   string   `json:"status"`
	Position Position `json:"position"`
}

// PaperAccount represents the simulated trading account row.
type PaperAccount struct {
	ID              int64   `json:"id"`
	Balance         float64 `json:"balance"`
	StartingBalance float64 `json:"starting_balance"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// PaperPerformance represents overall paper trading performance.
type PaperPerformance struct {
	StartingBalance float64 `json:"starting_balance"`
	CashBalance     float64 `json:"cash_balance"`
	PositionsValue  float64 `json:"positions_value"`
	TotalValue      float64 `json:"total_value"`
	TotalReturn     float64 `json:"total_return"`
	ReturnPct       float64 `json:"return_pct"`
	NumPositions    int     `json:"num_positions"`
}

// PaperTradeRequest is the payload for a simulated trade.
type PaperTradeRequest struct {
	Symbol    string    `json:"symbol"`
	Quantity  int       `json:"quantity"`
	OrderType OrderSide `json:"order_type"`
}

// PaperTradeResult represents the outcome of a simulated trade.
// Buys populate TotalCost; sells populate TotalProceeds and the
// realized P&L fields.
type PaperTradeResult struct {
	Status        string  `json:"status"`
	OrderType     string  `json:"order_type"`
	Symbol        string  `json:"symbol"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	TotalCost     float64 `json:"total_cost"`
	TotalProceeds float64 `json:"total_proceeds"`
	BalanceAfter  float64 `json:"balance_after"`
	RealizedPL    float64 `json:"realized_pl"`
	RealizedPLPct float64 `json:"realized_pl_pct"`
}

// TradeRecord represents one executed paper trade from history.
type TradeRecord struct {
	ID           int64   `json:"id"`
	Symbol       string  `json:"symbol"`
	Action       string  `json:"action"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	BalanceAfter float64 `json:"balance_after"`
	Timestamp    string  `json:"timestamp"`
}

// ActionResult is the generic {status, message} acknowledgement used
// by position close and paper account reset.
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
