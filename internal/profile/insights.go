package profile

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// insightRule renders at most one line. ok is false when the rule's signal
// is absent.
type insightRule func(b *SignalBundle, s *Signals) (line string, ok bool)

var insightRules = []insightRule{
	func(b *SignalBundle, s *Signals) (string, bool) {
		loc := b.Location.Label()
		if loc == "" {
			return "", false
		}
		if isp := ispName(b, s); isp != "" {
			return fmt.Sprintf("Connecting from %s via %s", loc, isp), true
		}
		return "Connecting from " + loc, true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if len(s.DevExtensions) == 0 {
			return "", false
		}
		return "Developer extensions detected: " + strings.Join(s.DevExtensions, ", "), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !s.DevToolsOpen {
			return "", false
		}
		return "Browser developer tools are open right now", true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if len(s.DevFonts) == 0 {
			return "", false
		}
		return "Programming fonts installed: " + strings.Join(s.DevFonts, ", "), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if s.GPUName == "" {
			return "", false
		}
		return fmt.Sprintf("GPU: %s (%s class)", s.GPUName, s.GPUClass), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		hw := b.Hardware
		if hw.ScreenWidth == 0 || hw.ScreenHeight == 0 {
			return "", false
		}
		if s.PhysicalWidth != hw.ScreenWidth {
			return fmt.Sprintf("Your screen is %d×%d physical pixels (%d×%d at %gx)",
				s.PhysicalWidth, s.PhysicalHeight, hw.ScreenWidth, hw.ScreenHeight, hw.PixelRatio), true
		}
		return fmt.Sprintf("Your screen is %d×%d pixels", hw.ScreenWidth, hw.ScreenHeight), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if s.Cores == 0 {
			return "", false
		}
		if s.MemoryGB > 0 {
			return fmt.Sprintf("%d CPU cores and %g GB of memory reported", s.Cores, s.MemoryGB), true
		}
		return fmt.Sprintf("%d CPU cores reported", s.Cores), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !s.HasTime {
			return "", false
		}
		clock := formatClock(s.Hour, s.Minute)
		if s.NightOwl {
			return fmt.Sprintf("It's %s where you are, a classic night-owl hour", clock), true
		}
		if s.DayOfWeek < 0 || s.DayOfWeek >= len(dayNames) {
			return fmt.Sprintf("Local time is %s", clock), true
		}
		return fmt.Sprintf("Local time is %s on a %s", clock, dayNames[s.DayOfWeek]), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		wpm := b.Behavior.Typing.WPM
		if wpm <= 0 {
			return "", false
		}
		return fmt.Sprintf("You type at about %.0f words per minute", wpm), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if len(s.Wallets) == 0 {
			return "", false
		}
		return "Crypto wallets detected: " + strings.Join(s.Wallets, ", "), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if len(s.Social) == 0 {
			return "", false
		}
		return "Signed in to: " + strings.Join(s.Social, ", "), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if s.Referrer == "" {
			return "", false
		}
		return "You arrived from " + s.Referrer, true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !s.VPNDetected {
			return "", false
		}
		if p := b.VPN.Provider; p != "" {
			return fmt.Sprintf("VPN detected (%s)", p), true
		}
		return "VPN detected", true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !s.TimezoneMismatch {
			return "", false
		}
		return "Browser timezone does not match your IP location", true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if len(s.PrivacyProtections) == 0 {
			return "", false
		}
		return "Privacy protections on: " + strings.Join(s.PrivacyProtections, ", "), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !s.HasBattery {
			return "", false
		}
		state := "charging"
		if !b.Hardware.Battery.Charging {
			state = "not charging"
		}
		if s.BatteryLow {
			return fmt.Sprintf("Battery at %d%% and %s; you may not stay long", s.BatteryPercent, state), true
		}
		return fmt.Sprintf("Battery at %d%% and %s", s.BatteryPercent, state), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		n := b.Behavior.Mouse.RageClicks
		if n == 0 {
			return "", false
		}
		return fmt.Sprintf("%d rage clicks detected", n), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		n := b.Behavior.Attention.TabSwitches
		if n < 3 {
			return "", false
		}
		return fmt.Sprintf("You switched tabs %d times", n), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		depth := b.Behavior.Scroll.MaxDepthPercent
		if depth <= 0 {
			return "", false
		}
		return fmt.Sprintf("You scrolled %.0f%% of the page", depth), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if len(s.Automation) == 0 {
			return "", false
		}
		return "Automation signals detected: " + strings.Join(s.Automation, ", "), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if s.DatacenterISP {
			return "Your connection comes from a datacenter network", true
		}
		return "", false
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if len(s.Languages) < 2 {
			return "", false
		}
		return "Languages: " + strings.Join(s.Languages, ", "), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !s.DarkMode {
			return "", false
		}
		return "Dark mode is enabled", true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !s.ReducedMotion {
			return "", false
		}
		return "Your system asks for reduced motion", true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		if !b.Network.SaveData {
			return "", false
		}
		return "Data saver is on", true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		st := b.Storage
		if st.QuotaBytes <= 0 {
			return "", false
		}
		return fmt.Sprintf("This site may store up to %s on your device (%s used)",
			humanize.IBytes(uint64(st.QuotaBytes)), humanize.IBytes(uint64(st.UsageBytes))), true
	},
	func(b *SignalBundle, s *Signals) (string, bool) {
		n := len(b.Fingerprint.Fonts)
		if n == 0 {
			return "", false
		}
		return fmt.Sprintf("%d installed fonts detected", n), true
	},
}

func collectInsights(b *SignalBundle, s *Signals) []string {
	insights := make([]string, 0, len(insightRules))
	for _, r := range insightRules {
		if line, ok := r(b, s); ok {
			insights = append(insights, line)
		}
	}
	return insights
}

func ispName(b *SignalBundle, s *Signals) string {
	if s.ISP != "" {
		return s.ISP
	}
	if b.Location != nil {
		return b.Location.Organization
	}
	return ""
}

func formatClock(hour, minute int) string {
	suffix := "AM"
	h := hour % 12
	if hour >= 12 {
		suffix = "PM"
	}
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}
