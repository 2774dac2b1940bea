package model

// MasteryBucket is one slice of the mastery distribution chart.
type MasteryBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ActivitySlice is one slice of the activity breakdown chart.
type ActivitySlice struct {
	Activity string `json:"activity"`
	Count    int    `json:"count"`
}

// RecentActivity is one row of the recent activity feed.
type RecentActivity struct {
	Kind      string  `json:"kind"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Timestamp string  `json:"timestamp"`
}

// WeakArea is a topic whose accuracy is below the mastery threshold.
type WeakArea struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
	Total    int     `json:"total"`
}

// DashboardStats is the aggregate payload for /api/analytics/dashboard.
type DashboardStats struct {
	TotalQuizzes        int              `json:"total_quizzes"`
	AverageScore        float64          `json:"average_score"`
	Streak              int              `json:"streak"`
	MasteryDistribution []MasteryBucket  `json:"mastery_distribution"`
	ActivityBreakdown   []ActivitySlice  `json:"activity_breakdown"`
	RecentActivity      []RecentActivity `json:"recent_activity"`
	WeakAreas           []WeakArea       `json:"weak_areas"`
}
