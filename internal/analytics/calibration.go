package analytics

import (
	"math"

	"opspulse/pkg/contracts/domain"
)

// CalibrationThreshold is the variance ratio above which a reading is flagged.
const CalibrationThreshold = 0.05

// HighVarianceAlerts is the alert count above which calibration is reported
// as High Variance.
const HighVarianceAlerts = 5

// Calibration status labels.
const (
	CalibrationStable       = "Stable"
	CalibrationHighVariance = "High Variance"
)

// CalibrationVariance compares the manual dip reading with the app-reported
// fuel level. Tickets missing either reading are skipped, so a zero manual
// reading never produces a ratio.
func CalibrationVariance(tickets []domain.SupportTicket) []domain.CalibrationReading {
	readings := make([]domain.CalibrationReading, 0, len(tickets))
	for _, t := range tickets {
		if t.ManualDipLevel == 0 || t.AppFuelLevel == 0 {
			continue
		}
		variance := math.Abs(t.ManualDipLevel - t.AppFuelLevel)
		ratio := variance / t.ManualDipLevel
		readings = append(readings, domain.CalibrationReading{
			ID:       t.ID,
			Company:  t.CompanyName,
			Manual:   t.ManualDipLevel,
			App:      t.AppFuelLevel,
			Variance: variance,
			Ratio:    ratio,
			Flagged:  ratio > CalibrationThreshold,
		})
	}
	return readings
}

// CountCalibrationAlerts returns how many tickets have a flagged reading.
func CountCalibrationAlerts(tickets []domain.SupportTicket) int {
	n := 0
	for _, r := range CalibrationVariance(tickets) {
		if r.Flagged {
			n++
		}
	}
	return n
}

// CalibrationStatus summarizes an alert count.
func CalibrationStatus(alerts int) string {
	if alerts > HighVarianceAlerts {
		return CalibrationHighVariance
	}
	return CalibrationStable
}
