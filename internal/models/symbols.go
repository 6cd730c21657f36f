package models

// SymbolInfo represents one known tradeable symbol.
type SymbolInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// SymbolPage represents a paginated symbol listing.
type SymbolPage struct {
	Total   int          `json:"total"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	Count   int          `json:"count"`
	Symbols []SymbolInfo `json:"symbols"`
}

// GroupCount represents a grouped count (by exchange or sector).
type GroupCount struct {
	Exchange string `json:"exchange,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Count    int    `json:"count"`
}

// SymbolStats represents database-wide symbol statistics.
type SymbolStats struct {
	TotalSymbols int          `json:"total_symbols"`
	ByExchange   []GroupCount `json:"by_exchange"`
	TopSectors   []GroupCount `json:"top_sectors"`
}

// SymbolImportResult is the reply from a symbol universe import.
type SymbolImportResult struct {
	Status          string `json:"status"`
	Source          string `json:"source"`
	SymbolsImported int    `json:"symbols_imported"`
	SymbolsFailed   int    `json:"symbols_failed"`
	Total           int    `json:"total"`
	Message         string `json:"message"`
}
