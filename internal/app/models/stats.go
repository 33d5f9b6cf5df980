package models

// LandingCounts are the live counters shown on the landing page
type LandingCounts struct {
	Members         int64 `json:"members"`
	Colleges        int64 `json:"colleges"`
	Companies       int64 `json:"companies"`
	Communities     int64 `json:"communities"`
	LearningCircles int64 `json:"learningCircles"`
	TotalKarma      int64 `json:"totalKarma"`
}
