package profile

const (
	humanBase = 70
	fraudBase = 10

	maxAutomationPenalty     = 40
	maxInfrastructurePenalty = 10
)

// humanScore starts at humanBase, subtracts capped penalty groups and adds
// interaction bonuses, then clamps to [0,100].
func humanScore(b *SignalBundle, s *Signals) int {
	automation := 0
	if b.Bot.Webdriver {
		automation += 25
	}
	if b.Bot.Headless {
		automation += 20
	}
	if len(b.Bot.Automation) > 0 {
		automation += 15
	}
	if b.Bot.InconsistentUserAgent {
		automation += 10
	}
	automation = min(automation, maxAutomationPenalty)

	infra := 0
	if b.Bot.VirtualMachine || s.GPUClass == GPUVirtual {
		infra += 10
	}
	if s.DatacenterISP {
		infra += 10
	}
	infra = min(infra, maxInfrastructurePenalty)

	score := humanBase - automation - infra
	if s.ZeroInteraction {
		score -= 15
	}

	bh := b.Behavior
	if bh.Mouse.Movements > 100 {
		score += 10
	}
	if bh.Mouse.Clicks > 3 {
		score += 5
	}
	if bh.Typing.Keystrokes > 10 {
		score += 5
	}
	if bh.Scroll.Events > 5 {
		score += 5
	}
	if bh.Typing.Backspaces > 0 {
		score += 5
	}

	return clamp(score, 0, 100)
}

func fraudRisk(b *SignalBundle, s *Signals) int {
	risk := fraudBase
	if b.Bot.Webdriver {
		risk += 30
	}
	if b.Bot.Headless {
		risk += 25
	}
	if len(b.Bot.Automation) > 0 {
		risk += 25
	}
	if b.Bot.VirtualMachine || s.GPUClass == GPUVirtual {
		risk += 15
	}
	if s.DatacenterISP {
		risk += 20
	}
	if s.VPNDetected {
		risk += 10
	}
	if s.TimezoneMismatch {
		risk += 10
	}
	if b.Bot.InconsistentUserAgent {
		risk += 15
	}
	if s.ZeroInteraction {
		risk += 10
	}
	if !b.Browser.CookiesEnabled {
		risk += 5
	}
	if b.Behavior.Mouse.Movements > 100 {
		risk -= 5
	}
	return clamp(risk, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
