package profile

import (
	"strings"
)

// GPUClass buckets the reported renderer
type GPUClass string

const (
	GPUPremium    GPUClass = "premium"
	GPUHigh       GPUClass = "high"
	GPUMid        GPUClass = "mid"
	GPUIntegrated GPUClass = "integrated"
	GPUVirtual    GPUClass = "virtual"
	GPUUnknown    GPUClass = "unknown"
)

// gpuKeywords is checked in order; virtual renderers first so a software
// rasterizer never passes for real hardware.
var gpuKeywords = []struct {
	class    GPUClass
	keywords []string
}{
	{GPUVirtual, []string{"swiftshader", "llvmpipe", "softpipe", "virtualbox", "vmware", "microsoft basic render", "parallels", "qxl"}},
	{GPUPremium, []string{"rtx 4090", "rtx 4080", "rtx 5090", "rtx 5080", "rtx 3090", "rx 7900", "titan", "a100", "h100",
		"m1 max", "m1 ultra", "m2 max", "m2 ultra", "m3 max", "m3 ultra", "m4 max"}},
	{GPUHigh, []string{"rtx 40", "rtx 30", "rtx 50", "rtx 20", "rx 7", "rx 6", "quadro", "radeon pro",
		"m1 pro", "m2 pro", "m3 pro", "m4 pro"}},
	{GPUMid, []string{"gtx", "rx 5", "arc a", "radeon rx", "apple m", "apple gpu"}},
	{GPUIntegrated, []string{"intel", "uhd", "iris", "adreno", "mali", "powervr", "radeon graphics", "vega", "apple"}},
}

var devExtensionKeywords = []string{
	"react developer tools", "vue.js devtools", "vue devtools", "redux devtools", "angular devtools",
	"svelte devtools", "apollo client devtools", "graphql", "json viewer", "jsonview", "postman",
	"wappalyzer", "lighthouse", "web developer", "modheader", "requestly",
}

var designExtensionKeywords = []string{
	"colorzilla", "whatfont", "figma", "pixel perfect", "page ruler", "eye dropper", "fonts ninja",
}

var devFontKeywords = []string{
	"fira code", "jetbrains mono", "source code pro", "cascadia code", "cascadia mono", "hack",
	"inconsolata", "sf mono", "ubuntu mono", "roboto mono", "ibm plex mono", "victor mono",
}

var designFontKeywords = []string{
	"myriad pro", "minion pro", "adobe", "proxima nova", "gotham", "futura pt", "sf pro display",
}

var datacenterKeywords = []string{
	"amazon", "aws", "google cloud", "digitalocean", "linode", "akamai", "ovh", "hetzner", "azure",
	"vultr", "choopa", "m247", "leaseweb", "contabo", "datacamp", "oracle cloud", "scaleway",
}

var fiberKeywords = []string{"fiber", "fibre", "fios", "sonic", "starlink"}

var mobileCarrierKeywords = []string{"t-mobile", "vodafone", "wireless", "cellular", "mobile", "verizon wireless"}

// referrerPlatforms maps referrer hosts to readable names, in match order
var referrerPlatforms = []struct {
	host string
	name string
}{
	{"news.ycombinator.com", "Hacker News"},
	{"reddit.com", "Reddit"},
	{"twitter.com", "Twitter/X"},
	{"x.com", "Twitter/X"},
	{"t.co", "Twitter/X"},
	{"facebook.com", "Facebook"},
	{"linkedin.com", "LinkedIn"},
	{"github.com", "GitHub"},
	{"tiktok.com", "TikTok"},
	{"instagram.com", "Instagram"},
	{"youtube.com", "YouTube"},
	{"discord.com", "Discord"},
	{"google.", "Google Search"},
	{"bing.com", "Bing"},
	{"duckduckgo.com", "DuckDuckGo"},
}

// Signals are micro-signals derived once from a bundle and shared by every
// scoring lane.
type Signals struct {
	// Hardware
	GPUClass       GPUClass
	GPUName        string
	AppleSilicon   bool
	Cores          int
	MemoryGB       float64
	PhysicalWidth  int
	PhysicalHeight int
	Is4K           bool
	IsQHDOrRetina  bool
	Ultrawide      bool
	BigScreen      bool
	HighColorDepth bool
	Mobile         bool
	Platform       string // "macOS", "Windows", "Linux", "iOS", "Android", "ChromeOS", "Unknown"
	BatteryLow     bool
	BatteryPercent int
	HasBattery     bool

	// Network
	FastNetwork   bool
	SlowNetwork   bool
	FiberISP      bool
	MobileCarrier bool
	DatacenterISP bool
	ISP           string

	// Tooling
	DevExtensions    []string
	DesignExtensions []string
	DevFonts         []string
	DesignFonts      []string
	HasDevSignal     bool
	HasDesignSignal  bool
	DevToolsOpen     bool

	// Social
	Social        []string // display names in fixed order
	GitHub        bool
	LinkedIn      bool
	Reddit        bool
	Discord       bool
	TikTok        bool
	Instagram     bool
	Facebook      bool
	Twitter       bool
	FacebookOnly  bool
	YouthPlatform bool
	Referrer      string

	// Wallets
	Wallets []string

	// Time
	HasTime     bool
	Hour        int
	Minute      int
	DayOfWeek   int
	NightOwl    bool
	EarlyBird   bool
	LateEvening bool
	WorkHours   bool
	Weekend     bool

	// Locale
	Languages []string

	// Behavior
	HasInteraction  bool
	ZeroInteraction bool
	HighWPM         bool
	Agitated        bool
	Distracted      bool
	Focused         bool
	Hesitant        bool
	Researching     bool
	DeepReader      bool

	// Privacy and trust
	PrivacyProtections []string
	VPNDetected        bool
	TimezoneMismatch   bool
	Automation         []string
	DarkMode           bool
	ReducedMotion      bool
}

// deriveSignals computes Signals. The bundle must already be validated.
func deriveSignals(b *SignalBundle) *Signals {
	s := &Signals{}
	hw := b.Hardware
	net := b.Network

	// Hardware
	gpu := strings.ToLower(hw.GPU + " " + b.Fingerprint.WebGLRenderer)
	s.GPUName = strings.TrimSpace(hw.GPU)
	if s.GPUName == "" {
		s.GPUName = strings.TrimSpace(b.Fingerprint.WebGLRenderer)
	}
	s.GPUClass = classifyGPU(gpu)
	s.Cores = hw.CPUCores
	s.MemoryGB = hw.MemoryGB

	ratio := hw.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	s.PhysicalWidth = int(float64(hw.ScreenWidth)*ratio + 0.5)
	s.PhysicalHeight = int(float64(hw.ScreenHeight)*ratio + 0.5)

	s.Platform = platformName(hw.Platform, b.Browser.UserAgent)
	s.Mobile = s.Platform == "iOS" || s.Platform == "Android" ||
		(hw.MaxTouchPoints > 0 && hw.ScreenWidth > 0 && hw.ScreenWidth < 1024)

	vendor := strings.ToLower(hw.GPUVendor)
	s.AppleSilicon = strings.Contains(gpu, "apple m") ||
		(s.Platform == "macOS" && strings.Contains(vendor, "apple") && !strings.Contains(gpu, "intel"))

	s.Is4K = !s.Mobile && s.PhysicalWidth >= 3840
	s.IsQHDOrRetina = !s.Is4K && (s.PhysicalWidth >= 2560 || ratio >= 2)
	if hw.ScreenHeight > 0 {
		s.Ultrawide = float64(hw.ScreenWidth)/float64(hw.ScreenHeight) >= 2.1
	}
	s.BigScreen = hw.ScreenWidth >= 2560 || s.PhysicalWidth >= 3440
	s.HighColorDepth = hw.ColorDepth >= 30

	if hw.Battery != nil {
		s.HasBattery = true
		s.BatteryPercent = int(hw.Battery.Level*100 + 0.5)
		s.BatteryLow = hw.Battery.Level < 0.2 && !hw.Battery.Charging
	}

	// Network
	effective := strings.ToLower(net.EffectiveType)
	s.SlowNetwork = effective == "slow-2g" || effective == "2g" || effective == "3g"
	s.FastNetwork = effective == "4g" && net.DownlinkMbps >= 10

	s.ISP = net.ISP
	if s.ISP == "" && b.Location != nil {
		s.ISP = b.Location.ISP
	}
	isp := strings.ToLower(s.ISP)
	if b.Location != nil {
		isp += " " + strings.ToLower(b.Location.Organization)
	}
	s.DatacenterISP = containsAny(isp, datacenterKeywords)
	s.FiberISP = containsAny(isp, fiberKeywords) || strings.EqualFold(net.ConnectionType, "ethernet") || net.DownlinkMbps >= 50
	s.MobileCarrier = !s.FiberISP && (containsAny(isp, mobileCarrierKeywords) || strings.EqualFold(net.ConnectionType, "cellular"))

	// Tooling
	s.DevExtensions = matchNames(b.Fingerprint.Extensions, devExtensionKeywords)
	s.DesignExtensions = matchNames(b.Fingerprint.Extensions, designExtensionKeywords)
	s.DevFonts = matchNames(b.Fingerprint.Fonts, devFontKeywords)
	s.DesignFonts = matchNames(b.Fingerprint.Fonts, designFontKeywords)
	s.DevToolsOpen = b.Browser.DevToolsOpen

	// Social
	if sl := b.SocialLogins; sl != nil {
		for _, p := range []struct {
			on   bool
			name string
		}{
			{sl.Google, "Google"}, {sl.Facebook, "Facebook"}, {sl.Twitter, "Twitter/X"},
			{sl.GitHub, "GitHub"}, {sl.Reddit, "Reddit"}, {sl.LinkedIn, "LinkedIn"},
			{sl.Discord, "Discord"}, {sl.TikTok, "TikTok"}, {sl.Instagram, "Instagram"},
		} {
			if p.on {
				s.Social = append(s.Social, p.name)
			}
		}
		s.GitHub, s.LinkedIn, s.Reddit = sl.GitHub, sl.LinkedIn, sl.Reddit
		s.Discord, s.TikTok, s.Instagram = sl.Discord, sl.TikTok, sl.Instagram
		s.Facebook, s.Twitter = sl.Facebook, sl.Twitter
		s.FacebookOnly = sl.Facebook && len(s.Social) == 1
	}
	s.YouthPlatform = s.TikTok || s.Discord
	s.Referrer = referrerName(b.Browser.Referrer)

	s.HasDevSignal = len(s.DevExtensions) > 0 || len(s.DevFonts) > 0 || s.GitHub
	s.HasDesignSignal = len(s.DesignExtensions) > 0 || len(s.DesignFonts) > 0

	// Wallets
	w := b.CryptoWallets
	for _, p := range []struct {
		on   bool
		name string
	}{
		{w.MetaMask, "MetaMask"}, {w.Phantom, "Phantom"}, {w.Coinbase, "Coinbase Wallet"},
		{w.Brave, "Brave Wallet"}, {w.Trust, "Trust Wallet"},
	} {
		if p.on {
			s.Wallets = append(s.Wallets, p.name)
		}
	}

	// Time, only when the client sent its clock
	if t := b.CurrentTime; t != nil {
		s.HasTime = true
		s.Hour, s.Minute, s.DayOfWeek = t.Hour, t.Minute, t.DayOfWeek
		s.NightOwl = t.Hour >= 23 || t.Hour < 4
		s.EarlyBird = t.Hour >= 5 && t.Hour < 7
		s.LateEvening = t.Hour >= 20 && t.Hour < 23
		s.Weekend = t.DayOfWeek == 0 || t.DayOfWeek == 6
		s.WorkHours = !s.Weekend && t.Hour >= 9 && t.Hour < 18
	}

	s.Languages = b.Browser.Languages

	// Behavior
	bh := b.Behavior
	s.HasInteraction = bh.Mouse.Movements > 0 || bh.Typing.Keystrokes > 0
	s.ZeroInteraction = !s.HasInteraction
	s.HighWPM = bh.Typing.WPM >= 70
	s.Agitated = bh.Mouse.RageClicks >= 3 || bh.Mouse.ErraticMovements >= 10
	s.Distracted = bh.Attention.TabSwitches >= 10
	s.Focused = bh.Attention.FocusedSeconds >= 120 && bh.Attention.TabSwitches <= 2
	s.Hesitant = bh.Emotion.Hesitations >= 5
	s.Researching = bh.Emotion.CopyEvents >= 2 && bh.Emotion.TextSelections >= 2
	s.DeepReader = bh.Scroll.MaxDepthPercent >= 75

	// Privacy and trust
	tr := b.Tracking
	for _, p := range []struct {
		on   bool
		name string
	}{
		{tr.AdBlocker, "ad blocker"}, {tr.DoNotTrack, "Do Not Track"},
		{tr.GlobalPrivacyControl, "Global Privacy Control"}, {tr.ThirdPartyCookiesBlocked, "third-party cookie blocking"},
	} {
		if p.on {
			s.PrivacyProtections = append(s.PrivacyProtections, p.name)
		}
	}
	if v := b.VPN; v != nil {
		s.VPNDetected = v.Detected
		s.TimezoneMismatch = v.TimezoneMismatch
	}

	if b.Bot.Webdriver {
		s.Automation = append(s.Automation, "webdriver")
	}
	if b.Bot.Headless {
		s.Automation = append(s.Automation, "headless browser")
	}
	s.Automation = append(s.Automation, b.Bot.Automation...)

	if p := b.Preferences; p != nil {
		s.DarkMode = p.DarkMode
		s.ReducedMotion = p.ReducedMotion
	}

	return s
}

func classifyGPU(gpu string) GPUClass {
	if strings.TrimSpace(gpu) == "" {
		return GPUUnknown
	}
	for _, group := range gpuKeywords {
		if containsAny(gpu, group.keywords) {
			return group.class
		}
	}
	return GPUUnknown
}

func platformName(platform, userAgent string) string {
	p := strings.ToLower(platform)
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(p, "iphone") || strings.Contains(p, "ipad") || strings.Contains(ua, "iphone"):
		return "iOS"
	case strings.Contains(p, "android") || strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(p, "mac"):
		return "macOS"
	case strings.Contains(p, "win"):
		return "Windows"
	case strings.Contains(ua, "cros"):
		return "ChromeOS"
	case strings.Contains(p, "linux"):
		return "Linux"
	}
	return "Unknown"
}

func referrerName(referrer string) string {
	ref := strings.ToLower(referrer)
	if ref == "" {
		return ""
	}
	host := ref
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	for _, p := range referrerPlatforms {
		if host == p.host || strings.HasSuffix(host, "."+p.host) ||
			(strings.HasSuffix(p.host, ".") && strings.HasPrefix(host, p.host)) {
			return p.name
		}
	}
	return ""
}

// matchNames returns the inputs that contain any keyword, in input order.
func matchNames(names, keywords []string) []string {
	var out []string
	for _, n := range names {
		if containsAny(strings.ToLower(n), keywords) {
			out = append(out, n)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
