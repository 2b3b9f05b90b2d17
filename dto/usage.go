package dto

type DailyUsageResponse struct {
	Date         string `json:"date"`
	RequestCount int64  `json:"request_count"`
	Cost         string `json:"cost"`
	TokensUsed   int64  `json:"tokens_used"`
}

type UsageStatsResponse struct {
	Today       DailyUsageResponse   `json:"today"`
	DailyBudget string               `json:"daily_budget"`
	BudgetUsed  string               `json:"budget_used_percent"`
	Recent      []DailyUsageResponse `json:"recent"`
}

type RateLimitStatsResponse struct {
	RequestsPerHour int   `json:"requests_per_hour"`
	Enabled         bool  `json:"enabled"`
	ActiveWindows   int64 `json:"active_windows"`
	BlockedIPs      int64 `json:"blocked_ips"`
}
