package recommend

import "time"

// Rand picks an index in [0, n). *math/rand/v2.Rand implements it.
type Rand interface {
	IntN(n int) int
}

// Tier is a progress band with its own message pool.
type Tier int

const (
	TierStart     Tier = iota // [0, 25)
	TierQuarter               // [25, 50)
	TierHalf                  // [50, 75)
	TierNearly                // [75, 100)
	TierCompleted             // [100, ...)
)

var suggestions = map[Tier][]string{
	TierStart: {
		"Every sip counts! Grab a glass of water and get your day flowing.",
		"Let's get started! A glass of water now sets the tone for the day.",
		"Your body is waiting for its first refill. Time for some water!",
		"Small sips add up. Start with one glass and keep going.",
		"Hydration kick-off! A glass of water wakes up body and mind.",
	},
	TierQuarter: {
		"Great start! Keep it up, and you'll feel more energized throughout the day!",
		"You're off to a good beginning! A little more hydration goes a long way.",
		"Nice work! Your body is thanking you. Ready for the next sip?",
		"Awesome! Just a quarter down. Keep the momentum going!",
		"Every drop counts! You're already 25% closer to your daily goal!",
	},
	TierHalf: {
		"Halfway there! Your body is loving the hydration!",
		"50% done! Keep drinking to maintain that focus and energy.",
		"Awesome job! You're halfway to feeling your best today!",
		"Great progress! Staying hydrated is a great way to power through the day.",
		"You're at 50%! Keep sipping to stay refreshed and alert.",
	},
	TierNearly: {
		"Almost there! Just a little more to reach your daily goal!",
		"You're 75% hydrated! One step closer to feeling fantastic!",
		"Awesome! You're nearly at the finish line. Keep it up!",
		"So close! Your body's loving this. Finish strong!",
		"Just a bit more to go! You're doing great!",
	},
	TierCompleted: {
		"Congratulations! You've reached your hydration goal today!",
		"Fantastic! You did it! Your body thanks you for staying hydrated!",
		"Mission accomplished! Way to take care of yourself today!",
		"Awesome! You nailed it! Hydration goals on point!",
		"Perfect! You've hit 100%! Feel the difference?",
	},
}

// TierFor maps a progress percentage to its band. Lower bounds are inclusive.
func TierFor(percent int) Tier {
	switch {
	case percent >= 100:
		return TierCompleted
	case percent >= 75:
		return TierNearly
	case percent >= 50:
		return TierHalf
	case percent >= 25:
		return TierQuarter
	default:
		return TierStart
	}
}

// Messages returns a copy of the pool for tier.
func Messages(tier Tier) []string {
	return append([]string{}, suggestions[tier]...)
}

// Suggestion picks a message uniformly at random from the pool matching
// today's progress against the adjusted goal.
func Suggestion(src Source, now time.Time, rnd Rand) string {
	pool := suggestions[TierFor(Recommendations(src, now).ProgressPercent)]
	return pool[rnd.IntN(len(pool))]
}
