// Package calculator holds the pure computations behind the dashboard:
// oil-change tracking, fuel statistics, odometer resolution and trip cost estimates.
// Every function here is free of I/O and safe for concurrent use.
package calculator

// BaselineSource tells where the last-service odometer used by Maintenance came from.
type BaselineSource string

const (
	BaselineRecorded BaselineSource = "recorded"
	BaselineHistory  BaselineSource = "history"
	BaselineDefault  BaselineSource = "default"
)

// MaintenanceInput describes a vehicle's service state.
type MaintenanceInput struct {
	Interval            float64
	LastServiceOdometer float64
	CurrentOdometer     float64
	// EarliestOdometer is the lowest positive reading in the vehicle's entry history, 0 if none.
	EarliestOdometer float64
	// DefaultBaseline is used when neither a recorded baseline nor history exists.
	DefaultBaseline float64
}

// MaintenanceStatus is the derived oil-change state of a vehicle.
type MaintenanceStatus struct {
	Valid              bool           `json:"valid"`
	Interval           float64        `json:"interval"`
	Baseline           float64        `json:"baseline"`
	BaselineSource     BaselineSource `json:"baseline_source"`
	CurrentOdometer    float64        `json:"current_odometer"`
	TargetOdometer     float64        `json:"target_odometer"`
	DrivenSinceService float64        `json:"driven_since_service"`
	PercentConsumed    float64        `json:"percent_consumed"`
	RemainingDistance  float64        `json:"remaining_distance"`
	IsCritical         bool           `json:"is_critical"`
}

// Maintenance computes how much of the service interval has been consumed.
//
// Negative readings are clamped to 0. A non-positive interval cannot be
// evaluated and yields a status with Valid set to false.
func Maintenance(in MaintenanceInput) MaintenanceStatus {
	interval := finite(in.Interval)
	current := clampZero(in.CurrentOdometer)
	if interval <= 0 {
		return MaintenanceStatus{CurrentOdometer: current, BaselineSource: BaselineRecorded}
	}

	baseline, source := resolveBaseline(in, current)
	target := baseline + interval

	driven := current - baseline
	if driven < 0 {
		driven = 0
	}

	critical := target-current <= 0
	percent := driven / interval * 100
	if percent > 100 {
		percent = 100
	}
	percent = round2(percent)
	// A reading just short of the target must not display as 100%.
	if !critical && percent >= 100 {
		percent = 99.99
	}

	remaining := target - current
	if remaining < 0 {
		remaining = 0
	}

	return MaintenanceStatus{
		Valid:              true,
		Interval:           interval,
		Baseline:           baseline,
		BaselineSource:     source,
		CurrentOdometer:    current,
		TargetOdometer:     target,
		DrivenSinceService: driven,
		PercentConsumed:    percent,
		RemainingDistance:  remaining,
		IsCritical:         critical,
	}
}

func resolveBaseline(in MaintenanceInput, current float64) (float64, BaselineSource) {
	last := clampZero(in.LastServiceOdometer)
	if last > 0 || current == 0 {
		return last, BaselineRecorded
	}
	if earliest := clampZero(in.EarliestOdometer); earliest > 0 {
		return earliest, BaselineHistory
	}
	return clampZero(in.DefaultBaseline), BaselineDefault
}

func clampZero(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}
