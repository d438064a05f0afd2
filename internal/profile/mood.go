package profile

// moodRules is keyed on interaction anomalies, strongest first
var moodRules = []struct {
	when   func(s *Signals) bool
	mood   string
	stress string
}{
	{func(s *Signals) bool { return s.Agitated }, "Frustrated", "High"},
	{func(s *Signals) bool { return s.Distracted }, "Distracted", "Elevated"},
	{func(s *Signals) bool { return s.Hesitant }, "Uncertain", "Moderate"},
	{func(s *Signals) bool { return s.Focused }, "Focused", "Low"},
	{func(s *Signals) bool { return s.Researching }, "Curious", "Low"},
}

func estimateMood(s *Signals) (mood, stress string) {
	for _, r := range moodRules {
		if r.when(s) {
			return r.mood, r.stress
		}
	}
	if s.ZeroInteraction {
		return "Passive", "Unknown"
	}
	return "Calm", "Low"
}

func estimateFocus(a Attention) string {
	if a.PageSeconds <= 0 {
		return "Unknown"
	}
	ratio := a.FocusedSeconds / a.PageSeconds
	switch {
	case ratio >= 0.8 && a.TabSwitches <= 2:
		return "Deep focus"
	case ratio >= 0.5:
		return "Engaged"
	case ratio >= 0.2:
		return "Partially engaged"
	}
	return "Scattered"
}

func estimateSleep(s *Signals) string {
	switch {
	case !s.HasTime:
		return "Unknown"
	case s.NightOwl:
		return "Night owl"
	case s.EarlyBird:
		return "Early bird"
	case s.LateEvening:
		return "Late-evening browser"
	}
	return "Regular schedule"
}

func estimateWorkLife(s *Signals) string {
	workSignal := s.LinkedIn || s.HasDevSignal
	switch {
	case !s.HasTime:
		return "Unknown"
	case s.NightOwl && !s.Weekend && s.HasDevSignal:
		return "Burning the midnight oil"
	case s.Weekend && workSignal:
		return "Blurred boundaries"
	case s.WorkHours && s.LinkedIn:
		return "Work-focused"
	case s.WorkHours:
		return "Browsing during work hours"
	}
	return "Balanced"
}
