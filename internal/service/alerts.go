package service

import (
	"fmt"
	"time"

	"github.com/Harshthakur24/Env-Dashboard/internal/models"
)

const (
	staleDataDays    = 7
	lowHarvestKg     = 100.0
	highTotalWasteKg = 5000.0

	AlertTypeWarning = "warning"
	AlertTypeInfo    = "info"
)

// GenerateAlerts derives threshold alerts from the filtered row set. Alerts are
// computed on demand and never stored.
func GenerateAlerts(rows []models.VisitRecord, now time.Time) []models.Alert {
	alerts := []models.Alert{}

	var totalWaste, totalHarvest float64
	var latest time.Time
	for _, r := range rows {
		totalWaste += r.WetWasteKg + r.BrownWasteKg
		totalHarvest += r.HarvestKg
		if r.VisitDate.After(latest) {
			latest = r.VisitDate
		}
	}

	// Staleness is only meaningful once at least one visit exists; the
	// harvest and waste totals still apply to an empty set.
	if !latest.IsZero() && now.Sub(latest) > staleDataDays*24*time.Hour {
		alerts = append(alerts, models.Alert{
			ID:      "no-data-7days",
			Message: fmt.Sprintf("No data uploaded in the last %d days.", staleDataDays),
			Type:    AlertTypeWarning,
		})
	}

	if totalHarvest < lowHarvestKg {
		alerts = append(alerts, models.Alert{
			ID:      "low-harvest",
			Message: fmt.Sprintf("Total harvest is below threshold (%.0f Kg).", lowHarvestKg),
			Type:    AlertTypeWarning,
		})
	}

	if totalWaste > highTotalWasteKg {
		alerts = append(alerts, models.Alert{
			ID:      "high-waste",
			Message: fmt.Sprintf("Total waste exceeds %.0f Kg. Consider reviewing operations.", highTotalWasteKg),
			Type:    AlertTypeInfo,
		})
	}

	return alerts
}
