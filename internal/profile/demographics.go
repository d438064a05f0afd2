package profile

// Age ranges, youngest first
const (
	Age18to24 = "18-24"
	Age25to34 = "25-34"
	Age35to44 = "35-44"
	Age45Plus = "45+"
)

// ageEstimate carries the bucket plus how many signals moved the score, so
// later lanes can tell a real estimate from the zero-score default.
type ageEstimate struct {
	Range    string
	Score    int
	Evidence int
}

type weight struct {
	when  func(s *Signals) bool
	delta int
}

var ageWeights = []weight{
	{func(s *Signals) bool { return s.NightOwl }, 2},
	{func(s *Signals) bool { return len(s.Wallets) > 0 }, 2},
	{func(s *Signals) bool { return s.HasDevSignal }, 1},
	{func(s *Signals) bool { return s.YouthPlatform }, 3},
	{func(s *Signals) bool { return s.Reddit && s.Discord }, 2},
	{func(s *Signals) bool { return s.Instagram }, 1},
	{func(s *Signals) bool { return s.FacebookOnly }, -3},
	{func(s *Signals) bool { return s.LinkedIn }, -1},
	{func(s *Signals) bool { return len(s.Languages) >= 3 }, -1},
	{func(s *Signals) bool { return s.EarlyBird }, -2},
	{func(s *Signals) bool { return s.DarkMode }, 1},
	{func(s *Signals) bool { return s.HighWPM }, 1},
}

var ageThresholds = []struct {
	min   int
	label string
}{
	{5, Age18to24},
	{2, Age25to34},
	{-1, Age35to44},
}

func estimateAge(s *Signals) ageEstimate {
	est := ageEstimate{}
	for _, w := range ageWeights {
		if w.when(s) {
			est.Score += w.delta
			est.Evidence++
		}
	}

	est.Range = Age45Plus
	for _, th := range ageThresholds {
		if est.Score >= th.min {
			est.Range = th.label
			break
		}
	}
	return est
}

// Income brackets, highest first
const (
	Income200kPlus = "$200k+"
	Income150to200 = "$150k-$200k"
	Income100to150 = "$100k-$150k"
	Income75to100  = "$75k-$100k"
	Income40to75   = "$40k-$75k"
	IncomeUnder40  = "Under $40k"
)

const incomeBaseline = 50

var incomeThresholds = []struct {
	min   int
	label string
}{
	{110, Income200kPlus},
	{95, Income150to200},
	{80, Income100to150},
	{65, Income75to100},
	{45, Income40to75},
}

// incomeRank orders brackets so lanes can compare them
func incomeRank(bracket string) int {
	for i, th := range incomeThresholds {
		if th.label == bracket {
			return len(incomeThresholds) - i
		}
	}
	return 0
}

func estimateIncome(s *Signals, dev Device) string {
	score := incomeBaseline

	switch dev.Tier {
	case TierPremium:
		score += 25
	case TierHighEnd:
		score += 15
	case TierMid:
		score += 5
	default:
		score -= 10
	}

	switch {
	case s.Cores >= 16:
		score += 10
	case s.Cores >= 8:
		score += 5
	}

	switch {
	case s.Is4K:
		score += 10
	case s.IsQHDOrRetina:
		score += 5
	}

	switch {
	case s.FiberISP:
		score += 10
	case s.FastNetwork:
		score += 5
	case s.SlowNetwork:
		score -= 10
	case s.MobileCarrier:
		score -= 5
	}

	if s.HasDevSignal {
		score += 10
	}
	if s.LinkedIn {
		score += 5
	}
	if s.HasDesignSignal {
		score += 5
	}
	if s.AppleSilicon {
		score += 5
	}

	walletBonus := 5 * len(s.Wallets)
	if walletBonus > 15 {
		walletBonus = 15
	}
	score += walletBonus

	for _, th := range incomeThresholds {
		if score >= th.min {
			return th.label
		}
	}
	return IncomeUnder40
}
