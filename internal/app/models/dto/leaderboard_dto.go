package dto

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank  int    `json:"rank" example:"1"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int64  `json:"score" example:"1200"`
}

// UserRankResponse is the caller's position on the student leaderboards
type UserRankResponse struct {
	MUID         string `json:"muid"`
	FullName     string `json:"fullName"`
	Karma        int64  `json:"karma"`
	Rank         int    `json:"rank"`
	MonthlyKarma int64  `json:"monthlyKarma"`
	MonthlyRank  int    `json:"monthlyRank"`
}
