package audio

import (
	"math"

	"github.com/voicestudio/voice-service/internal/core"
)

// Default validation limits for voice-cloning source recordings.
const (
	DefaultMinDurationSeconds = 10.0
	DefaultMaxDurationSeconds = 60.0
	DefaultMaxSilenceRatio    = 0.85
	DefaultMaxClippingRatio   = 0.01
	DefaultMinSNRDB           = 10.0

	// silenceAmplitudeFloor is the absolute amplitude below which a sample
	// counts as silence.
	silenceAmplitudeFloor = 0.01
	// clippingAmplitude is the absolute amplitude at which a 16-bit sample
	// counts as clipped.
	clippingAmplitude = 0.99
	// noiseWindowSeconds is the leading window used to estimate the noise
	// floor for the SNR estimate.
	noiseWindowSeconds = 0.1
	// snrEpsilon keeps the SNR estimate finite for dead-silent noise windows.
	snrEpsilon = 1e-10
)

// Limits configures the acceptance thresholds of the validator.
type Limits struct {
	MinDurationSeconds float64
	MaxDurationSeconds float64
	MaxSilenceRatio    float64
	MaxClippingRatio   float64
	MinSNRDB           float64
}

// DefaultLimits returns the standard thresholds for voice-model uploads.
func DefaultLimits() Limits {
	return Limits{
		MinDurationSeconds: DefaultMinDurationSeconds,
		MaxDurationSeconds: DefaultMaxDurationSeconds,
		MaxSilenceRatio:    DefaultMaxSilenceRatio,
		MaxClippingRatio:   DefaultMaxClippingRatio,
		MinSNRDB:           DefaultMinSNRDB,
	}
}

// Validator decides whether a decoded recording is usable for voice cloning.
type Validator struct {
	limits Limits
}

// NewValidator creates a Validator with the given limits.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate runs the ordered quality checks against decoded PCM samples and
// returns the first failing reason, or an accepted verdict with the full
// metrics. The computation is a pure function of its input: identical samples
// always yield identical metrics. A zero-length buffer is classified as
// too_short rather than surfacing a lower-level fault.
func (v *Validator) Validate(samples []float64, sampleRate int) core.ValidationResult {
	metrics := core.QualityMetrics{
		DurationSeconds: 0,
		SNRDB:           0,
		ClippingRatio:   0,
		SilenceRatio:    0,
		SampleRate:      sampleRate,
	}

	if sampleRate > 0 {
		metrics.DurationSeconds = float64(len(samples)) / float64(sampleRate)
	}

	if len(samples) == 0 || sampleRate <= 0 ||
		metrics.DurationSeconds < v.limits.MinDurationSeconds {
		return rejected(core.ReasonTooShort, metrics)
	}

	if metrics.DurationSeconds > v.limits.MaxDurationSeconds {
		return rejected(core.ReasonTooLong, metrics)
	}

	metrics.SilenceRatio = silenceRatio(samples)
	if metrics.SilenceRatio > v.limits.MaxSilenceRatio {
		return rejected(core.ReasonTooMuchSilence, metrics)
	}

	metrics.ClippingRatio = clippingRatio(samples)
	if metrics.ClippingRatio > v.limits.MaxClippingRatio {
		return rejected(core.ReasonClipping, metrics)
	}

	metrics.SNRDB = estimateSNR(samples, sampleRate)
	if metrics.SNRDB < v.limits.MinSNRDB {
		return rejected(core.ReasonLowQuality, metrics)
	}

	return core.ValidationResult{
		Accepted: true,
		Reason:   "",
		Metrics:  metrics,
	}
}

func rejected(reason core.RejectReason, metrics core.QualityMetrics) core.ValidationResult {
	return core.ValidationResult{
		Accepted: false,
		Reason:   reason,
		Metrics:  metrics,
	}
}

// silenceRatio is the fraction of samples below the amplitude floor.
func silenceRatio(samples []float64) float64 {
	var silent int

	for _, sample := range samples {
		if math.Abs(sample) < silenceAmplitudeFloor {
			silent++
		}
	}

	return float64(silent) / float64(len(samples))
}

// clippingRatio is the fraction of samples at or near full scale.
func clippingRatio(samples []float64) float64 {
	var clipped int

	for _, sample := range samples {
		if math.Abs(sample) >= clippingAmplitude {
			clipped++
		}
	}

	return float64(clipped) / float64(len(samples))
}

// estimateSNR estimates the signal-to-noise ratio in decibels. The noise
// floor is taken from the standard deviation of the leading window, on the
// assumption that a recording starts with a short stretch of room tone.
func estimateSNR(samples []float64, sampleRate int) float64 {
	noiseWindow := int(noiseWindowSeconds * float64(sampleRate))
	if noiseWindow < 1 {
		noiseWindow = 1
	}

	if noiseWindow > len(samples) {
		noiseWindow = len(samples)
	}

	noise := standardDeviation(samples[:noiseWindow])
	signal := standardDeviation(samples)

	return 20 * math.Log10(signal/(noise+snrEpsilon))
}

func standardDeviation(samples []float64) float64 {
	var mean float64
	for _, sample := range samples {
		mean += sample
	}

	mean /= float64(len(samples))

	var variance float64
	for _, sample := range samples {
		diff := sample - mean
		variance += diff * diff
	}

	return math.Sqrt(variance / float64(len(samples)))
}
