package ledger

// LevelStep is the number of cumulative points per level.
const LevelStep = 100

// LevelFor derives a user's level from cumulative points. Level is never an
// independent quantity: both stores persist a level column for cheap reads,
// but every write path recomputes it through this function.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/LevelStep + 1
}
