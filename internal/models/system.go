package models

// Health is the backend liveness reply.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Dashboard aggregates the main view: portfolio valuation, paper
// trading performance, recent headlines and the watchlist.
type Dashboard struct {
	Portfolio    PortfolioSummary `json:"portfolio"`
	PaperTrading PaperPerformance `json:"paper_trading"`
	RecentNews   []NewsArticle    `json:"recent_news"`
	Watchlist    []WatchlistEntry `json:"watchlist"`
}

// ProcessInfo describes the backend process.
type ProcessInfo struct {
	PID        int     `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
	Threads    int     `json:"threads"`
}

// SystemStatus is the backend process status reply. Error is set when
// process inspection failed and only the PID is known.
type SystemStatus struct {
	Status           string      `json:"status"`
	Process          ProcessInfo `json:"process"`
	PythonVersion    string      `json:"python_version"`
	WorkingDirectory string      `json:"working_directory"`
	Error            string      `json:"error"`
}

// ServerAction is the reply from restart/shutdown/start requests.
type ServerAction struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Method  string `json:"method"`
	Hint    string `json:"hint"`
}

// BackendInfo is the backend's root self-description.
type BackendInfo struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Status      string            `json:"status"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// Headline is the trimmed article reference in import results.
type Headline struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	Published string `json:"published"`
}

// DailyImportResult is the reply from a daily market data import.
type DailyImportResult struct {
	Status           string   `json:"status"`
	SymbolsRequested int      `json:"symbols_requested"`
	SymbolsImported  int      `json:"symbols_imported"`
	SymbolsFailed    int      `json:"symbols_failed"`
	TotalRows        int      `json:"total_rows"`
	Success          []string `json:"success"`
	Failed           []string `json:"failed"`
}

// NewsImportResult is the reply from a news feed import.
type NewsImportResult struct {
	Status           string     `json:"status"`
	ArticlesImported int        `json:"articles_imported"`
	LatestHeadlines  []Headline `json:"latest_headlines"`
}

// TrendingStats summarizes social mentions for one ticker.
type TrendingStats struct {
	Mentions     int     `json:"mentions"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// RedditImportResult is the reply from a social sentiment import.
// Status is "skipped" when the backend has no Reddit credentials.
type RedditImportResult struct {
	Status          string                   `json:"status"`
	Message         string                   `json:"message"`
	TotalMentions   int                      `json:"total_mentions"`
	TrendingTickers map[string]TrendingStats `json:"trending_tickers"`
}

// EconomicImportResult is the reply from a FRED indicator import.
type EconomicImportResult struct {
	Status             string             `json:"status"`
	Message            string             `json:"message"`
	IndicatorsImported int                `json:"indicators_imported"`
	LatestValues       map[string]float64 `json:"latest_values"`
}

// ExportSummary wraps the portfolio markdown export.
type ExportSummary struct {
	Markdown string `json:"markdown"`
}

// StatusReply is the generic {status, symbol} acknowledgement used by
// watchlist mutations.
type StatusReply struct {
	Status string `json:"status"`
	Symbol string `json:"symbol"`
}
