package game

import "math"

// maxComboStreak caps the streak counted into the score multiplier.
const maxComboStreak = 5

// ScoreResult is the outcome of scoring one resolved order.
type ScoreResult struct {
	Points     int  `json:"points"`
	Perfect    bool `json:"perfect"`
	Multiplier int  `json:"multiplier"`
	OrderScore int  `json:"orderScore"`
	TimeBonus  int  `json:"timeBonus"`
	Correct    int  `json:"correct"`
}

// ScoreKeeper turns served-vs-ordered item sets into points and tracks the
// per-level score and the consecutive-perfect streak.
type ScoreKeeper struct {
	cfg        LevelConfig
	levelScore int
	streak     int
}

func NewScoreKeeper(cfg LevelConfig) *ScoreKeeper {
	return &ScoreKeeper{cfg: cfg}
}

// Configure installs a level's point tunables and resets per-level state.
func (s *ScoreKeeper) Configure(cfg LevelConfig) {
	if s == nil {
		return
	}
	s.cfg = cfg
	s.ResetForNewLevel()
}

// ResetForNewLevel zeroes the level score and the perfect streak.
func (s *ScoreKeeper) ResetForNewLevel() {
	if s == nil {
		return
	}
	s.levelScore = 0
	s.streak = 0
}

// Score compares the served items against the ordered ones and returns the
// points earned. The multiplier applied is the one earned by the streak built
// before this order; the streak is updated afterwards.
func (s *ScoreKeeper) Score(served, ordered []FoodType, remainingSeconds float64) ScoreResult {
	if s == nil {
		return ScoreResult{}
	}
	result := ScoreResult{Multiplier: s.Multiplier()}

	result.Correct = matchCount(served, ordered)
	result.Perfect = IsPerfect(served, ordered)

	if result.Perfect {
		result.OrderScore = s.cfg.BasePointsPerOrder + s.cfg.PerfectOrderBonus
	} else if len(ordered) > 0 {
		result.OrderScore = int(math.Round(float64(s.cfg.BasePointsPerOrder) * float64(result.Correct) / float64(len(ordered))))
	}

	if remainingSeconds > 0 {
		result.TimeBonus = int(math.Round(remainingSeconds * float64(s.cfg.TimeBonusPerSecond)))
	}

	result.Points = (result.OrderScore + result.TimeBonus) * result.Multiplier

	s.levelScore += result.Points
	if result.Perfect {
		s.streak++
	} else {
		s.streak = 0
	}
	return result
}

// RecordExpiry registers a timed-out order: no points, streak broken.
func (s *ScoreKeeper) RecordExpiry() {
	if s == nil {
		return
	}
	s.streak = 0
}

// Multiplier reports the factor the next resolution will be scored with.
func (s *ScoreKeeper) Multiplier() int {
	if s == nil {
		return 1
	}
	streak := s.streak
	if streak > maxComboStreak {
		streak = maxComboStreak
	}
	return 1 + streak
}

// Streak reports the current run of consecutive perfect orders.
func (s *ScoreKeeper) Streak() int {
	if s == nil {
		return 0
	}
	return s.streak
}

// LevelScore reports the points accumulated in the current level.
func (s *ScoreKeeper) LevelScore() int {
	if s == nil {
		return 0
	}
	return s.levelScore
}

// IsPerfect reports whether served and ordered match as multisets. Placement
// order is irrelevant.
func IsPerfect(served, ordered []FoodType) bool {
	if len(served) != len(ordered) {
		return false
	}
	return matchCount(served, ordered) == len(ordered)
}

// matchCount greedily matches served items against a shrinking multiset of
// the ordered items; each ordered item satisfies at most one served item.
// Excess served items are simply unmatched.
func matchCount(served, ordered []FoodType) int {
	if len(served) == 0 || len(ordered) == 0 {
		return 0
	}
	remaining := make(map[FoodType]int, len(ordered))
	for _, item := range ordered {
		remaining[item]++
	}
	count := 0
	for _, item := range served {
		if remaining[item] > 0 {
			remaining[item]--
			count++
		}
	}
	return count
}
