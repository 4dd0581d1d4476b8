package models

// TodoStats represents aggregate counts over the whole collection
type TodoStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completionRate"` // Rounded percentage, 0 when empty
}

// DetailedTodoStats extends TodoStats with a priority breakdown and recent activity
type DetailedTodoStats struct {
	TodoStats
	ByPriority     map[Priority]int `json:"byPriority"`
	RecentActivity []*Todo          `json:"recentActivity"` // Items created or updated in the last 24h
}
