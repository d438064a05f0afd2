package profile

import (
	"fmt"
	"strings"

	"github.com/quantumlife/viewerscope/internal/core"
)

// Result is the profile for one bundle. It holds no maps, so its JSON
// encoding is stable for a given input.
type Result struct {
	HumanScore      int          `json:"humanScore"`
	FraudRisk       int          `json:"fraudRisk"`
	Confidence      int          `json:"confidence"`
	Device          Device       `json:"device"`
	AgeRange        string       `json:"ageRange"`
	IncomeBracket   string       `json:"incomeBracket"`
	Occupation      string       `json:"occupation"`
	Education       string       `json:"education"`
	LifeSituation   string       `json:"lifeSituation"`
	Mood            string       `json:"mood"`
	StressLevel     string       `json:"stressLevel"`
	FocusLevel      string       `json:"focusLevel"`
	SleepPattern    string       `json:"sleepPattern"`
	WorkLifeBalance string       `json:"workLifeBalance"`
	TechAttitude    string       `json:"techAttitude"`
	PersonalLife    PersonalLife `json:"personalLife"`
	Interests       []string     `json:"interests"`
	Insights        []string     `json:"insights"`
	Summary         string       `json:"summary"`
}

// Analyze validates the bundle and runs every scoring lane. Validation
// failures wrap core.ErrInvalidBundle; anything else that goes wrong inside a
// lane is returned as core.ErrAnalysisFailed.
func Analyze(b *SignalBundle) (result *Result, err error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", core.ErrAnalysisFailed, r)
		}
	}()

	s := deriveSignals(b)

	device := estimateDevice(s)
	age := estimateAge(s)
	income := estimateIncome(s, device)
	occupation, _ := firstMatch(occupationRules, s, OccupationFallback)
	education, _ := firstMatch(educationRules, s, EducationFallback)
	life, _ := firstMatch(lifeSituationRules, s, LifeSituationFallback)
	attitude, _ := firstMatch(techAttitudeRules, s, TechAttitudeFallback)
	mood, stress := estimateMood(s)

	result = &Result{
		HumanScore:      humanScore(b, s),
		FraudRisk:       fraudRisk(b, s),
		Confidence:      confidence(b, s),
		Device:          device,
		AgeRange:        age.Range,
		IncomeBracket:   income,
		Occupation:      occupation,
		Education:       education,
		LifeSituation:   life,
		Mood:            mood,
		StressLevel:     stress,
		FocusLevel:      estimateFocus(b.Behavior.Attention),
		SleepPattern:    estimateSleep(s),
		WorkLifeBalance: estimateWorkLife(s),
		TechAttitude:    attitude,
		PersonalLife:    estimatePersonal(s, age, income),
		Interests:       collectInterests(s),
		Insights:        collectInsights(b, s),
	}
	result.Summary = summarize(b, s, result)

	return result, nil
}

func summarize(b *SignalBundle, s *Signals, r *Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "A %s %s user", r.Device.Tier, platformLabel(s))
	if loc := b.Location.Label(); loc != "" {
		sb.WriteString(" in " + loc)
	}
	fmt.Fprintf(&sb, ", most likely a %s aged %s, currently %s.", r.Occupation, r.AgeRange, strings.ToLower(r.Mood))

	if r.HumanScore < 40 {
		fmt.Fprintf(&sb, " Human score %d/100: this session looks automated.", r.HumanScore)
	} else {
		fmt.Fprintf(&sb, " Human score %d/100, confidence %d%%.", r.HumanScore, r.Confidence)
	}
	return sb.String()
}

func platformLabel(s *Signals) string {
	if s.Platform == "Unknown" {
		if s.Mobile {
			return "mobile"
		}
		return "desktop"
	}
	return s.Platform
}
