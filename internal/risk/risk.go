package risk

type Tier string

const (
	TierAvailable    Tier = "Available"
	TierMediumRisk   Tier = "Medium Risk"
	TierNotAvailable Tier = "Not Available"
)

// Lower edges are inclusive: 0.30 is Medium Risk, 0.60 is Not Available.
const (
	MediumThreshold = 0.30
	HighThreshold   = 0.60
)

type Assessment struct {
	Tier       Tier   `json:"tier"`
	Level      string `json:"level"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

func Classify(p float64) Assessment {
	switch {
	case p < MediumThreshold:
		return Assessment{
			Tier:       TierAvailable,
			Level:      "success",
			Message:    "Available - Appointment is likely to be attended.",
			Suggestion: "No action needed.",
		}
	case p < HighThreshold:
		return Assessment{
			Tier:       TierMediumRisk,
			Level:      "warning",
			Message:    "Medium Risk - Recommend confirming with the client.",
			Suggestion: "Recommend phone confirmation.",
		}
	default:
		return Assessment{
			Tier:       TierNotAvailable,
			Level:      "error",
			Message:    "Not Available - High risk of no-show.",
			Suggestion: "Consider rescheduling or double-check with client.",
		}
	}
}
