package game

const (
	MinFlipDurationMS = 350
	MaxFlipDurationMS = 3000

	maxScore            = 1000
	movePenalty         = 10
	flipDurationWarning = "flip duration must be between 350 and 3000 ms; using 350 ms"
)

// CalculateScore returns 1000 minus one point per elapsed second and ten per move,
// never going below zero.
func CalculateScore(elapsedSeconds, moves int) int {
	return max(maxScore-(elapsedSeconds+moves*movePenalty), 0)
}

// ClampFlipDuration returns ms unchanged when it lies in [350, 3000].
// Any other value yields the minimum and ok=false.
func ClampFlipDuration(ms int) (clamped int, ok bool) {
	if ms < MinFlipDurationMS || ms > MaxFlipDurationMS {
		return MinFlipDurationMS, false
	}
	return ms, true
}
