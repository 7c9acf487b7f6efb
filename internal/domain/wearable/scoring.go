package wearable

import "math"

// Recovery score weights. Missing signals are omitted together with their
// weight and the result is renormalized over the weights actually present,
// never zero-filled.
const (
	weightHRV       = 0.35
	weightRestingHR = 0.25
	weightSleep     = 0.25
	weightBreathing = 0.15
)

// Training load weights, same renormalization pattern.
const (
	weightActiveZone    = 0.30
	weightCardioLoad    = 0.25
	weightActiveMinutes = 0.20
	weightCalories      = 0.15
	weightSteps         = 0.10
)

// Sub-score normalization anchors.
const (
	hrvCeiling          = 80.0  // ms; HRV at or above this scores 100
	restingHRFloor      = 40.0  // bpm; resting HR at or below this scores 100
	restingHRRange      = 40.0  // bpm span from floor to a zero score
	sleepTargetMinutes  = 480.0 // 8 hours
	breathingLow        = 12.0  // breaths/min, optimal band lower bound
	breathingHigh       = 20.0
	breathingMid        = 16.0
	activeZoneTarget    = 60.0 // minutes of active-zone time for a full score
	cardioLoadTarget    = 100.0
	activeMinutesTarget = 60.0
	caloriesBaseline    = 1500.0 // resting burn excluded from the load signal
	caloriesTarget      = 1000.0 // active calories over baseline for a full score
	stepsTarget         = 10000.0
)

type weightedSignal struct {
	score  float64
	weight float64
}

// weightedAverage renormalizes over the weights present. Zero signals
// available yields 0: unknown is scored as lowest confidence, not an error.
func weightedAverage(signals []weightedSignal) int {
	var sum, weights float64
	for _, s := range signals {
		sum += s.score * s.weight
		weights += s.weight
	}
	if weights == 0 {
		return 0
	}
	return clampScore(math.Round(sum / weights))
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

func cap100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

// RecoveryScore computes the 0-100 recovery score from HRV, resting heart
// rate, sleep quality and breathing rate.
func RecoveryScore(m *DailyMetrics) int {
	var signals []weightedSignal

	if m.HRV != nil {
		signals = append(signals, weightedSignal{hrvSubScore(*m.HRV), weightHRV})
	}
	if m.RestingHeartRate != nil {
		signals = append(signals, weightedSignal{restingHRSubScore(*m.RestingHeartRate), weightRestingHR})
	}
	if m.Sleep != nil {
		signals = append(signals, weightedSignal{sleepSubScore(m.Sleep), weightSleep})
	}
	if m.BreathingRate != nil {
		signals = append(signals, weightedSignal{breathingSubScore(*m.BreathingRate), weightBreathing})
	}

	return weightedAverage(signals)
}

// TrainingLoad computes the 0-100 training load from activity intensity
// signals, each sub-score capped at 100 before weighting.
func TrainingLoad(m *DailyMetrics) int {
	var signals []weightedSignal

	if m.ActiveZoneMinutes != nil {
		signals = append(signals, weightedSignal{
			cap100(float64(*m.ActiveZoneMinutes) / activeZoneTarget * 100), weightActiveZone})
	}
	if m.CardioLoad != nil {
		signals = append(signals, weightedSignal{
			cap100(*m.CardioLoad / cardioLoadTarget * 100), weightCardioLoad})
	}
	if m.ActiveMinutes != nil {
		signals = append(signals, weightedSignal{
			cap100(float64(*m.ActiveMinutes) / activeMinutesTarget * 100), weightActiveMinutes})
	}
	if m.Calories != nil {
		over := math.Max(float64(*m.Calories)-caloriesBaseline, 0)
		signals = append(signals, weightedSignal{
			cap100(over / caloriesTarget * 100), weightCalories})
	}
	if m.Steps != nil {
		signals = append(signals, weightedSignal{
			cap100(float64(*m.Steps) / stepsTarget * 100), weightSteps})
	}

	return weightedAverage(signals)
}

func hrvSubScore(hrv float64) float64 {
	return cap100(hrv / hrvCeiling * 100)
}

// restingHRSubScore maps a lower resting heart rate to a higher score:
// 40 bpm or below scores 100, 80 bpm or above scores 0.
func restingHRSubScore(rhr int) float64 {
	return cap100(100 - (float64(rhr)-restingHRFloor)/restingHRRange*100)
}

// sleepSubScore blends duration quality (scaled to a 0-10 band against an
// 8-hour target) with the provider-reported efficiency.
func sleepSubScore(s *SleepSummary) float64 {
	quality := math.Min(float64(s.TotalMinutes)/sleepTargetMinutes*10, 10)
	return cap100(quality*10*0.6 + float64(s.Efficiency)*0.4)
}

// breathingSubScore scores 100 inside the normal 12-20 band and decays by
// 10 points per breath/min of deviation from 16 outside it.
func breathingSubScore(rate float64) float64 {
	if rate >= breathingLow && rate <= breathingHigh {
		return 100
	}
	return math.Max(0, 100-math.Abs(breathingMid-rate)*10)
}
