package models

// Signal is a discrete betting action derived from rank and confidence.
type Signal string

const (
	SignalStrongBuy Signal = "STRONG_BUY"
	SignalBuy       Signal = "BUY"
	SignalHold      Signal = "HOLD"
	SignalWait      Signal = "WAIT"
)

// Actionable reports whether the signal justifies staking money. WAIT
// signals produce a no_bet outcome during accuracy validation.
func (s Signal) Actionable() bool {
	return s == SignalStrongBuy || s == SignalBuy || s == SignalHold
}

// ConfidenceLevel is the qualitative band a confidence scalar falls into.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceModerate ConfidenceLevel = "MODERATE"
	ConfidenceLow      ConfidenceLevel = "LOW"
	ConfidenceVeryLow  ConfidenceLevel = "VERY_LOW"
)

// RaceRecommendation is the race-level betting stance aggregated from the
// top pick's signal and the ensemble's model agreement.
type RaceRecommendation string

const (
	RecommendStrongBet   RaceRecommendation = "STRONG_BET"
	RecommendBet         RaceRecommendation = "BET"
	RecommendCautiousBet RaceRecommendation = "CAUTIOUS_BET"
	RecommendHold        RaceRecommendation = "HOLD"
	RecommendWait        RaceRecommendation = "WAIT"
)

// RaceDifficulty grades how separated the top two horses are.
type RaceDifficulty string

const (
	DifficultyEasy     RaceDifficulty = "EASY"
	DifficultyModerate RaceDifficulty = "MODERATE"
	DifficultyHard     RaceDifficulty = "DIFFICULT"
	DifficultyUnknown  RaceDifficulty = "UNKNOWN"
)

// BettingSignal is the signal engine's per-horse recommendation. Derived
// deterministically from an EnsembleOutput; immutable after creation.
type BettingSignal struct {
	HorseName       string          `json:"horse_name"`
	Rank            int             `json:"rank"`
	Confidence      float64         `json:"confidence"`
	Signal          Signal          `json:"signal"`
	Recommendation  string          `json:"recommendation"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	ExpectedROI     float64         `json:"expected_roi"`
}

// RaceAdvice is the race-level summary returned alongside per-horse signals.
type RaceAdvice struct {
	RaceID         string             `json:"race_id"`
	Recommendation RaceRecommendation `json:"recommendation"`
	Reason         string             `json:"reason,omitempty"`
	TopHorse       string             `json:"top_horse"`
	TopConfidence  float64            `json:"top_confidence"`
	Difficulty     RaceDifficulty     `json:"difficulty"`
}
