package dto

// BlockRequest payload for toggling an account's blocked flag.
type BlockRequest struct {
	UserID string `json:"user_id"`
}

// HeadStatsResponse carries a head's workload counters.
type HeadStatsResponse struct {
	Active   int64 `json:"active"`
	Resolved int64 `json:"resolved"`
}

// DirectoryUserResponse is an account entry on the admin dashboard,
// with role-dependent stats.
type DirectoryUserResponse struct {
	UserSummary
	HeadStats    *HeadStatsResponse `json:"head_stats,omitempty"`
	TotalQueries *int64             `json:"total_queries,omitempty"`
}
