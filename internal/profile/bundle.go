// Package profile turns a bundle of client-reported browser signals into an
// explainable viewer profile.
//
// Analyze is a pure function: the same bundle always yields the same result.
// Every estimate is a heuristic over fixed rules, not a trained model.
package profile

import (
	"fmt"

	"github.com/quantumlife/viewerscope/internal/core"
)

// -----------------------------------------------------------------------------
// INPUT - SignalBundle as posted by the client
// -----------------------------------------------------------------------------

// SignalBundle groups everything the client collected. Hardware and network
// are mandatory; every other block may be absent.
type SignalBundle struct {
	Hardware      *Hardware     `json:"hardware"`
	Network       *Network      `json:"network"`
	Browser       Browser       `json:"browser"`
	Fingerprint   Fingerprint   `json:"fingerprint"`
	SocialLogins  *SocialLogins `json:"socialLogins,omitempty"`
	VPN           *VPN          `json:"vpn,omitempty"`
	Preferences   *Preferences  `json:"preferences,omitempty"`
	Bot           Bot           `json:"bot"`
	Behavior      Behavior      `json:"behavior"`
	Tracking      Tracking      `json:"tracking"`
	CryptoWallets CryptoWallets `json:"cryptoWallets"`
	CurrentTime   *CurrentTime  `json:"currentTime,omitempty"`
	Storage       StorageStats  `json:"storage"`
	Location      *LocationHint `json:"location,omitempty"`
}

// Hardware as reported by navigator, screen and WebGL
type Hardware struct {
	GPU            string   `json:"gpu"`
	GPUVendor      string   `json:"gpuVendor"`
	CPUCores       int      `json:"cpuCores"`
	MemoryGB       float64  `json:"memoryGb"`
	ScreenWidth    int      `json:"screenWidth"`
	ScreenHeight   int      `json:"screenHeight"`
	PixelRatio     float64  `json:"pixelRatio"`
	ColorDepth     int      `json:"colorDepth"`
	MaxTouchPoints int      `json:"maxTouchPoints"`
	Platform       string   `json:"platform"`
	Battery        *Battery `json:"battery,omitempty"`
}

// Battery from the Battery Status API; Level is 0..1
type Battery struct {
	Level    float64 `json:"level"`
	Charging bool    `json:"charging"`
}

// Network from the Network Information API plus the client's ISP guess
type Network struct {
	EffectiveType  string  `json:"effectiveType"`
	DownlinkMbps   float64 `json:"downlinkMbps"`
	RTTMs          int     `json:"rttMs"`
	SaveData       bool    `json:"saveData"`
	ConnectionType string  `json:"connectionType"`
	ISP            string  `json:"isp"`
}

// Browser environment
type Browser struct {
	UserAgent      string   `json:"userAgent"`
	Languages      []string `json:"languages"`
	Timezone       string   `json:"timezone"`
	Referrer       string   `json:"referrer"`
	CookiesEnabled bool     `json:"cookiesEnabled"`
	DevToolsOpen   bool     `json:"devToolsOpen"`
	PDFViewer      bool     `json:"pdfViewer"`
}

// Fingerprint surfaces
type Fingerprint struct {
	CanvasHash    string   `json:"canvasHash"`
	WebGLRenderer string   `json:"webglRenderer"`
	AudioHash     string   `json:"audioHash"`
	Fonts         []string `json:"fonts"`
	Extensions    []string `json:"extensions"`
}

// SocialLogins are sites the browser appears to be signed in to
type SocialLogins struct {
	Google    bool `json:"google"`
	Facebook  bool `json:"facebook"`
	Twitter   bool `json:"twitter"`
	GitHub    bool `json:"github"`
	Reddit    bool `json:"reddit"`
	LinkedIn  bool `json:"linkedin"`
	Discord   bool `json:"discord"`
	TikTok    bool `json:"tiktok"`
	Instagram bool `json:"instagram"`
}

// VPN detection results
type VPN struct {
	Detected         bool   `json:"detected"`
	TimezoneMismatch bool   `json:"timezoneMismatch"`
	WebRTCLeak       bool   `json:"webrtcLeak"`
	Provider         string `json:"provider"`
}

// Preferences from CSS media queries
type Preferences struct {
	DarkMode      bool `json:"darkMode"`
	ReducedMotion bool `json:"reducedMotion"`
	HighContrast  bool `json:"highContrast"`
}

// Bot detection flags
type Bot struct {
	Webdriver             bool     `json:"webdriver"`
	Headless              bool     `json:"headless"`
	Automation            []string `json:"automation"`
	VirtualMachine        bool     `json:"virtualMachine"`
	InconsistentUserAgent bool     `json:"inconsistentUserAgent"`
}

// Behavior counters collected while the page was open
type Behavior struct {
	Typing    Typing    `json:"typing"`
	Mouse     Mouse     `json:"mouse"`
	Scroll    Scroll    `json:"scroll"`
	Attention Attention `json:"attention"`
	Emotion   Emotion   `json:"emotion"`
}

type Typing struct {
	Keystrokes int     `json:"keystrokes"`
	WPM        float64 `json:"wpm"`
	Backspaces int     `json:"backspaces"`
}

type Mouse struct {
	Movements        int `json:"movements"`
	Clicks           int `json:"clicks"`
	RageClicks       int `json:"rageClicks"`
	ErraticMovements int `json:"erraticMovements"`
}

type Scroll struct {
	Events           int     `json:"events"`
	MaxDepthPercent  float64 `json:"maxDepthPercent"`
	DirectionChanges int     `json:"directionChanges"`
}

type Attention struct {
	TabSwitches    int     `json:"tabSwitches"`
	FocusedSeconds float64 `json:"focusedSeconds"`
	IdleSeconds    float64 `json:"idleSeconds"`
	PageSeconds    float64 `json:"pageSeconds"`
}

type Emotion struct {
	Hesitations    int `json:"hesitations"`
	CopyEvents     int `json:"copyEvents"`
	TextSelections int `json:"textSelections"`
}

// Tracking protection flags
type Tracking struct {
	AdBlocker                bool `json:"adBlocker"`
	DoNotTrack               bool `json:"doNotTrack"`
	GlobalPrivacyControl     bool `json:"globalPrivacyControl"`
	ThirdPartyCookiesBlocked bool `json:"thirdPartyCookiesBlocked"`
}

// CryptoWallets detected as injected providers
type CryptoWallets struct {
	MetaMask bool `json:"metaMask"`
	Phantom  bool `json:"phantom"`
	Coinbase bool `json:"coinbase"`
	Brave    bool `json:"brave"`
	Trust    bool `json:"trust"`
}

// CurrentTime is the client's local clock. DayOfWeek is 0 for Sunday.
type CurrentTime struct {
	Hour                  int `json:"hour"`
	Minute                int `json:"minute"`
	DayOfWeek             int `json:"dayOfWeek"`
	TimezoneOffsetMinutes int `json:"timezoneOffsetMinutes"`
}

// StorageStats from the Storage API
type StorageStats struct {
	UsageBytes       int64 `json:"usageBytes"`
	QuotaBytes       int64 `json:"quotaBytes"`
	LocalStorageKeys int   `json:"localStorageKeys"`
	CookieCount      int   `json:"cookieCount"`
}

// LocationHint is the derived location, filled in server side when absent.
type LocationHint struct {
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	ISP          string `json:"isp"`
	Organization string `json:"organization,omitempty"`
}

// HintFromRecord converts a resolved location into a hint
func HintFromRecord(rec *core.LocationRecord) *LocationHint {
	if rec == nil {
		return nil
	}
	return &LocationHint{
		City:         rec.City,
		Region:       rec.Region,
		Country:      rec.Country,
		ISP:          rec.ISP,
		Organization: rec.Organization,
	}
}

// Label renders "City, Region, Country" skipping blanks
func (l *LocationHint) Label() string {
	if l == nil {
		return ""
	}
	return (&core.LocationRecord{City: l.City, Region: l.Region, Country: l.Country}).Label()
}

// -----------------------------------------------------------------------------
// VALIDATION
// -----------------------------------------------------------------------------

// Validate rejects bundles that cannot be analysed. Errors wrap
// core.ErrInvalidBundle.
func (b *SignalBundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: empty body", core.ErrInvalidBundle)
	}
	if b.Hardware == nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidBundle, core.ErrMissingHardware)
	}
	if b.Network == nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidBundle, core.ErrMissingNetwork)
	}

	hw := b.Hardware
	if hw.CPUCores < 0 || hw.MemoryGB < 0 || hw.ScreenWidth < 0 || hw.ScreenHeight < 0 ||
		hw.PixelRatio < 0 || hw.ColorDepth < 0 || hw.MaxTouchPoints < 0 {
		return fmt.Errorf("%w: negative hardware value", core.ErrInvalidBundle)
	}
	if hw.Battery != nil && (hw.Battery.Level < 0 || hw.Battery.Level > 1) {
		return fmt.Errorf("%w: battery level must be within 0..1", core.ErrInvalidBundle)
	}
	if b.Network.DownlinkMbps < 0 || b.Network.RTTMs < 0 {
		return fmt.Errorf("%w: negative network value", core.ErrInvalidBundle)
	}

	bh := b.Behavior
	for _, n := range []int{
		bh.Typing.Keystrokes, bh.Typing.Backspaces,
		bh.Mouse.Movements, bh.Mouse.Clicks, bh.Mouse.RageClicks, bh.Mouse.ErraticMovements,
		bh.Scroll.Events, bh.Scroll.DirectionChanges,
		bh.Attention.TabSwitches,
		bh.Emotion.Hesitations, bh.Emotion.CopyEvents, bh.Emotion.TextSelections,
		b.Storage.LocalStorageKeys, b.Storage.CookieCount,
	} {
		if n < 0 {
			return fmt.Errorf("%w: negative behavior counter", core.ErrInvalidBundle)
		}
	}
	if bh.Typing.WPM < 0 || bh.Attention.FocusedSeconds < 0 || bh.Attention.IdleSeconds < 0 ||
		bh.Attention.PageSeconds < 0 || bh.Scroll.MaxDepthPercent < 0 {
		return fmt.Errorf("%w: negative behavior measurement", core.ErrInvalidBundle)
	}
	if b.Storage.UsageBytes < 0 || b.Storage.QuotaBytes < 0 {
		return fmt.Errorf("%w: negative storage value", core.ErrInvalidBundle)
	}

	if t := b.CurrentTime; t != nil {
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return fmt.Errorf("%w: currentTime out of range", core.ErrInvalidBundle)
		}
		if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
			return fmt.Errorf("%w: dayOfWeek must be 0..6", core.ErrInvalidBundle)
		}
	}

	return nil
}
