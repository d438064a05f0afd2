package profile

import "slices"

const maxInterests = 6

var interestRules = []struct {
	when     func(s *Signals) bool
	interest string
}{
	{func(s *Signals) bool { return s.HasDevSignal }, "Software Development"},
	{func(s *Signals) bool { return s.GitHub }, "Open Source"},
	{func(s *Signals) bool { return len(s.Wallets) > 0 }, "Cryptocurrency"},
	{func(s *Signals) bool { return s.GPUClass == GPUPremium || (s.GPUClass == GPUHigh && s.Platform == "Windows") }, "PC Gaming"},
	{func(s *Signals) bool { return s.HasDesignSignal }, "Design"},
	{func(s *Signals) bool { return s.Referrer == "Hacker News" }, "Tech News"},
	{func(s *Signals) bool { return s.Reddit }, "Online Communities"},
	{func(s *Signals) bool { return s.Discord }, "Gaming Communities"},
	{func(s *Signals) bool { return s.LinkedIn }, "Career Growth"},
	{func(s *Signals) bool { return len(s.PrivacyProtections) >= 2 || s.VPNDetected }, "Privacy & Security"},
	{func(s *Signals) bool { return s.TikTok || s.Instagram }, "Short-form Video"},
	{func(s *Signals) bool { return s.Twitter }, "News & Current Events"},
	{func(s *Signals) bool { return s.Ultrawide || s.Is4K }, "Productivity Setups"},
	{func(s *Signals) bool { return s.AppleSilicon }, "Apple Ecosystem"},
	{func(s *Signals) bool { return len(s.Languages) >= 3 }, "Languages & Travel"},
	{func(s *Signals) bool { return s.DeepReader && s.Focused }, "Long-form Reading"},
}

// collectInterests appends matching tags in rule order, without duplicates,
// up to maxInterests.
func collectInterests(s *Signals) []string {
	interests := make([]string, 0, maxInterests)
	for _, r := range interestRules {
		if len(interests) == maxInterests {
			break
		}
		if r.when(s) && !slices.Contains(interests, r.interest) {
			interests = append(interests, r.interest)
		}
	}
	if len(interests) == 0 {
		interests = append(interests, "General Browsing")
	}
	return interests
}
