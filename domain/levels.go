package domain

import "math"

const (
	minLevel = 1
	maxLevel = 100
)

// CalcLevel converts a cumulative points counter (wealth or recharge points)
// into a display level, clamped to [1, 100]. Chat messages stamp levels
// computed at send time so they always match the sender's profile.
func CalcLevel(points int64) int {
	if points <= 0 {
		return minLevel
	}
	level := int(math.Sqrt(float64(points)) / 200)
	if level < minLevel {
		return minLevel
	}
	if level > maxLevel {
		return maxLevel
	}
	return level
}
