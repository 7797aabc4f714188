package scheduler

import "math/rand/v2"

// Pool names a message category.
type Pool string

const (
	PoolWakeup       Pool = "wakeup"
	PoolBedtime      Pool = "bedtime"
	PoolAfterAlcohol Pool = "afterAlcohol"
	PoolReminder     Pool = "reminder"
)

var messages = map[Pool][]string{
	PoolWakeup: {
		"Good Morning! Fresh glass of water flushes out the stomach and therefore balances the lymphatic system",
		"Good Morning! Its time for glass of water, it rehydrates you after a waterless night.",
		"Good Morning! Time to drink water, it increases your energy levels.",
		"Good Morning! Glass of water at the morning boosts mental performance.",
		"Good Morning! Fresh glass of water stimulates your metabolism, time to do it!",
		"Good Morning! You should drink glass of water promotes digestion!",
		"Good Morning! Glass of water curbs hunger pangs.",
	},
	PoolBedtime: {
		"Good Evening! Time for glass of water, it may have a calming effect.",
		"Good Evening! Don't forget to drink a glass of water, hydration helps with sleep stages.",
		"Good Evening! Glass of water keep stay body hydrated overnight!",
		"Good Evening! Fresh glass of water helps to remove waste, regulate body temperature!",
		"Good Evening! Glass of water before bed helps induce sleepiness.",
		"Good Evening! Water helps to detox the body and improve digestion an the night.",
		"Good Evening! Don't forget to drink a glass of water it increases blood circulation.",
	},
	PoolAfterAlcohol: {
		"Don't forget to drink a glass of water, it wil keep you rehydrated!",
		"You should drink a glass of water, it will keep body in balance.",
		"Its time for glass of fresh water, it will reduce risk of dehydration!",
		"Keep in mind, glass of water after each drink will reduce hangover risk.",
	},
	PoolReminder: {
		"Don't forget to drink a glass of water, it wil keep you rehydrated!",
		"Drink water, it helps maximize physical performance!",
		"Time to drink water, it significantly affects energy levels and brain function.",
		"Drink water! It may help prevent and treat headaches.",
		"Now time for water, it may help relieve constipation.",
		"Its time for glass of water it helps treat kidney stones.",
		"Time for glass of water, keep yourself hydrated!",
	},
}

// Messages returns a copy of the pool's messages.
func Messages(p Pool) []string {
	return append([]string{}, messages[p]...)
}

// Rand picks an index in [0, n). *math/rand/v2.Rand implements it.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level math/rand/v2 source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func pick(rnd Rand, p Pool) string {
	pool := messages[p]
	return pool[rnd.IntN(len(pool))]
}
