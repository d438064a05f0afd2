package profile

// rule is one row of a priority table. Tables are evaluated top to bottom and
// the first matching rule wins; tier documents the evidence strength and must
// never increase down a table.
type rule struct {
	tier   int
	name   string
	when   func(s *Signals) bool
	result string
}

// firstMatch returns the result and name of the first rule whose predicate
// holds, or fallback.
func firstMatch(rules []rule, s *Signals, fallback string) (string, string) {
	for _, r := range rules {
		if r.when(s) {
			return r.result, r.name
		}
	}
	return fallback, "fallback"
}

const (
	OccupationFallback    = "Knowledge Worker"
	EducationFallback     = "Some college or higher (uncertain)"
	LifeSituationFallback = "Browsing casually"
	TechAttitudeFallback  = "Mainstream user"
)

// occupationRules put the most specific evidence first; a bare screen
// heuristic can never beat a developer fingerprint.
var occupationRules = []rule{
	{4, "devtools-extension-and-inspector", func(s *Signals) bool {
		return len(s.DevExtensions) > 0 && s.DevToolsOpen
	}, "Software Engineer"},
	{4, "github-and-dev-fonts", func(s *Signals) bool {
		return s.GitHub && len(s.DevFonts) > 0
	}, "Software Developer"},
	{3, "devtools-on-linux", func(s *Signals) bool {
		return (len(s.DevExtensions) > 0 || len(s.DevFonts) > 0) && s.Platform == "Linux"
	}, "Backend/DevOps Engineer"},
	{3, "design-tools-wide-gamut", func(s *Signals) bool {
		return s.HasDesignSignal && s.HighColorDepth
	}, "Designer / Creative Professional"},
	{3, "multiple-wallets", func(s *Signals) bool {
		return len(s.Wallets) >= 2
	}, "Crypto Trader / Web3 Enthusiast"},
	{2, "linkedin-at-work", func(s *Signals) bool {
		return s.LinkedIn && s.WorkHours && !s.Mobile
	}, "Business Professional"},
	{2, "devtools", func(s *Signals) bool {
		return len(s.DevExtensions) > 0 || len(s.DevFonts) > 0 || s.DevToolsOpen
	}, "Web Developer"},
	{2, "design-signal", func(s *Signals) bool {
		return s.HasDesignSignal
	}, "Creative Professional"},
	{1, "power-user-display", func(s *Signals) bool {
		return s.Ultrawide || (s.BigScreen && s.Cores >= 12)
	}, "Data Analyst / Power User"},
	{1, "mobile-night-owl", func(s *Signals) bool {
		return s.Mobile && s.NightOwl
	}, "Student"},
	{1, "4k-display", func(s *Signals) bool {
		return s.Is4K
	}, "Media Professional"},
}

var educationRules = []rule{
	{3, "dev-extensions-and-fonts", func(s *Signals) bool {
		return len(s.DevExtensions) > 0 && len(s.DevFonts) > 0
	}, "Bachelor's or higher (likely STEM)"},
	{3, "multilingual", func(s *Signals) bool {
		return len(s.Languages) >= 3
	}, "Graduate degree likely (multilingual)"},
	{2, "linkedin-at-work", func(s *Signals) bool {
		return s.LinkedIn && s.WorkHours
	}, "Bachelor's degree likely"},
	{2, "technical", func(s *Signals) bool {
		return s.HasDevSignal
	}, "Technical education (degree or self-taught)"},
	{1, "creative", func(s *Signals) bool {
		return s.HasDesignSignal
	}, "Creative or arts education likely"},
	{1, "student-pattern", func(s *Signals) bool {
		return s.Mobile && s.NightOwl
	}, "Possibly currently in college"},
}

var lifeSituationRules = []rule{
	{3, "young-night-social", func(s *Signals) bool {
		return s.NightOwl && s.Mobile && s.YouthPlatform
	}, "Student or young adult"},
	{2, "early-weekday", func(s *Signals) bool {
		return s.EarlyBird && s.HasTime && !s.Weekend
	}, "Early-rising professional"},
	{2, "linkedin-at-work", func(s *Signals) bool {
		return s.WorkHours && s.LinkedIn
	}, "Working professional (on the clock)"},
	{1, "desk-during-work", func(s *Signals) bool {
		return s.WorkHours && !s.Mobile
	}, "Working professional"},
	{1, "weekend-evening", func(s *Signals) bool {
		return s.Weekend && (s.LateEvening || s.NightOwl)
	}, "Enjoying free time"},
	{1, "holds-crypto", func(s *Signals) bool {
		return len(s.Wallets) > 0
	}, "Financially adventurous"},
}

var techAttitudeRules = []rule{
	{3, "privacy-maximalist", func(s *Signals) bool {
		return s.HasDevSignal && len(s.PrivacyProtections) >= 3
	}, "Privacy-maximalist power user"},
	{3, "builder", func(s *Signals) bool {
		return len(s.DevExtensions) > 0 || s.DevToolsOpen
	}, "Tech-savvy builder"},
	{2, "early-adopter", func(s *Signals) bool {
		return len(s.Wallets) >= 2
	}, "Early adopter"},
	{2, "privacy-conscious", func(s *Signals) bool {
		return len(s.PrivacyProtections) >= 2 || s.VPNDetected
	}, "Privacy-conscious"},
	{1, "apple-ecosystem", func(s *Signals) bool {
		return s.AppleSilicon
	}, "Premium ecosystem loyalist"},
	{1, "enthusiast-hardware", func(s *Signals) bool {
		return s.GPUClass == GPUPremium || s.GPUClass == GPUHigh
	}, "Hardware enthusiast"},
}
