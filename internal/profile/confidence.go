package profile

const (
	confidenceBase = 35

	// MaxConfidence caps the score; browser signals never justify certainty.
	MaxConfidence = 92
)

// confidenceTiers weigh evidence: fingerprint-grade facts first, behavioral
// counters last.
var confidenceTiers = []struct {
	weight int
	checks []func(b *SignalBundle, s *Signals) bool
}{
	{10, []func(b *SignalBundle, s *Signals) bool{
		func(b *SignalBundle, s *Signals) bool { return len(b.Fingerprint.Extensions) > 0 },
		func(b *SignalBundle, s *Signals) bool { return len(s.Wallets) > 0 },
		func(b *SignalBundle, s *Signals) bool { return len(s.Social) > 0 },
	}},
	{6, []func(b *SignalBundle, s *Signals) bool{
		func(b *SignalBundle, s *Signals) bool { return s.GPUClass != GPUUnknown },
		func(b *SignalBundle, s *Signals) bool { return b.Location.Label() != "" },
		func(b *SignalBundle, s *Signals) bool { return b.VPN != nil },
		func(b *SignalBundle, s *Signals) bool { return b.Browser.Timezone != "" },
	}},
	{4, []func(b *SignalBundle, s *Signals) bool{
		func(b *SignalBundle, s *Signals) bool { return b.Network.EffectiveType != "" },
		func(b *SignalBundle, s *Signals) bool { return len(b.Fingerprint.Fonts) > 0 },
		func(b *SignalBundle, s *Signals) bool { return len(s.Languages) > 0 },
		func(b *SignalBundle, s *Signals) bool { return b.Storage.QuotaBytes > 0 },
		func(b *SignalBundle, s *Signals) bool { return s.HasTime },
	}},
	{2, []func(b *SignalBundle, s *Signals) bool{
		func(b *SignalBundle, s *Signals) bool { return b.Behavior.Typing.Keystrokes > 0 },
		func(b *SignalBundle, s *Signals) bool { return b.Behavior.Mouse.Movements > 0 },
		func(b *SignalBundle, s *Signals) bool { return b.Behavior.Mouse.Clicks > 0 },
		func(b *SignalBundle, s *Signals) bool { return b.Behavior.Scroll.Events > 0 },
		func(b *SignalBundle, s *Signals) bool { return b.Behavior.Attention.PageSeconds > 0 },
	}},
}

func confidence(b *SignalBundle, s *Signals) int {
	score := confidenceBase
	for _, tier := range confidenceTiers {
		for _, check := range tier.checks {
			if check(b, s) {
				score += tier.weight
			}
		}
	}
	return clamp(score, 0, MaxConfidence)
}
