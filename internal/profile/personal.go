package profile

// CannotDetermine is returned by a personal-life lane with no supporting signal
const CannotDetermine = "Cannot determine from available signals"

// PersonalLife holds hedged guesses; every value is qualified.
type PersonalLife struct {
	Relationship  string `json:"relationship"`
	Children      string `json:"children"`
	HomeOwnership string `json:"homeOwnership"`
}

func estimatePersonal(s *Signals, age ageEstimate, income string) PersonalLife {
	return PersonalLife{
		Relationship:  estimateRelationship(s, age),
		Children:      estimateChildren(s, age),
		HomeOwnership: estimateHome(s, age, income),
	}
}

func estimateRelationship(s *Signals, age ageEstimate) string {
	switch {
	case s.NightOwl && s.YouthPlatform:
		return "Likely single (late-night social activity)"
	case s.Facebook && s.Instagram && age.Evidence > 0 && age.Range != Age18to24:
		return "Possibly in a relationship (family-oriented social platforms)"
	case s.EarlyBird && s.Facebook:
		return "Possibly married or partnered"
	case s.Weekend && s.LateEvening && len(s.Social) > 0:
		return "Possibly single (weekend evening browsing)"
	case len(s.Social) > 0 && age.Evidence > 0:
		return "Cannot determine with confidence; possibly single"
	}
	return CannotDetermine
}

func estimateChildren(s *Signals, age ageEstimate) string {
	if age.Evidence == 0 && !s.HasTime {
		return CannotDetermine
	}
	switch {
	case age.Evidence > 0 && age.Range == Age18to24:
		return "Unlikely to have children"
	case s.EarlyBird && s.Facebook:
		return "Possibly has children (early schedule, family platforms)"
	case age.Evidence > 0 && age.Range == Age45Plus:
		return "Possibly has grown children"
	case s.NightOwl && s.YouthPlatform:
		return "Likely no children"
	case age.Evidence > 0 && age.Range == Age35to44 && s.WorkHours:
		return "Possibly has young children"
	}
	return CannotDetermine
}

func estimateHome(s *Signals, age ageEstimate, income string) string {
	rank := incomeRank(income)
	switch {
	case age.Evidence > 0 && age.Range == Age18to24:
		return "Likely renting"
	case rank >= incomeRank(Income100to150) && age.Evidence > 0 && age.Range != Age25to34:
		return "Likely homeowner"
	case s.FiberISP && rank >= incomeRank(Income75to100):
		return "Possibly homeowner (residential broadband)"
	case s.MobileCarrier && s.Mobile:
		return "Possibly renting (mobile-only connection)"
	}
	return CannotDetermine
}
