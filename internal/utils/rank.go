package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity       float64 // time decay exponent
	WeightRating  float64
	WeightComment float64
	ScaleFactor   float64
}

var DefaultRankConfig = RankConfig{
	Gravity:       1.5,
	WeightRating:  1.0,
	WeightComment: 2.0,
	ScaleFactor:   100.0,
}

// HotRank scores a post for front-page ordering: log-smoothed weighted
// engagement divided by an age decay. Computed at query time from the
// denormalized counters; nothing is written back.
func HotRank(createdAt time.Time, rating float64, commentCount int) float64 {
	hours := time.Since(createdAt).Hours()

	weightedSum := rating*DefaultRankConfig.WeightRating +
		float64(commentCount)*DefaultRankConfig.WeightComment
	if weightedSum < 0 {
		weightedSum = 0
	}

	logScore := math.Log10(weightedSum + 1)
	decay := math.Pow(hours+2, DefaultRankConfig.Gravity)

	return logScore * DefaultRankConfig.ScaleFactor / decay
}
