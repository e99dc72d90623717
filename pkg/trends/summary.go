package trends

import (
	"context"
	"fmt"

	"github.com/solmeter/solmeter/pkg/config"
	"github.com/solmeter/solmeter/pkg/storage"
	"github.com/solmeter/solmeter/pkg/timeline"
)

// Settings carries the tariff and goal parameters the summary figures
// are derived from.
type Settings struct {
	CostPerKWh     float64
	CO2Factor      float64
	YearlyGoal     float64
	SystemCapacity float64
	CurrencySymbol string
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return Settings{
		CostPerKWh:     config.DefaultCostPerKWh,
		CO2Factor:      config.DefaultCO2Factor,
		YearlyGoal:     config.DefaultYearlyGoal,
		SystemCapacity: config.DefaultSystemCapacity,
		CurrencySymbol: config.DefaultCurrencySymbol,
	}
}

// Summary is the headline dashboard response.
type Summary struct {
	TotalM1          float64 `json:"total_m1"`
	TotalM2          float64 `json:"total_m2"`
	TotalProduction  float64 `json:"total_production"`
	MoneySaved       float64 `json:"money_saved"`
	CO2Offset        float64 `json:"co2_offset"`
	TreesEquivalent  float64 `json:"trees_equivalent"`
	SpecificYield    float64 `json:"specific_yield"`
	ReadingCount     int     `json:"reading_count"`
	FirstReadingDate string  `json:"first_reading_date,omitempty"`
	LastReadingDate  string  `json:"last_reading_date,omitempty"`
	YearlyGoal       float64 `json:"yearly_goal"`
	GoalProgress     float64 `json:"goal_progress"`
	SystemCapacity   float64 `json:"system_capacity"`
	CurrencySymbol   string  `json:"currency_symbol"`
}

// Summary totals all stored readings and derives money saved, CO2
// offset, trees equivalent, specific yield and goal progress from the
// settings. Goal progress is capped at 100%.
func (a *Aggregator) Summary(ctx context.Context, settings Settings) (*Summary, error) {
	readings, err := a.storage.Query(ctx, storage.QueryRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}

	var totalM1, totalM2 float64
	for _, r := range readings {
		totalM1 += r.M1
		totalM2 += r.M2
	}
	total := totalM1 + totalM2

	summary := &Summary{
		TotalM1:         round2(totalM1),
		TotalM2:         round2(totalM2),
		TotalProduction: round2(total),
		MoneySaved:      round2(total * settings.CostPerKWh),
		CO2Offset:       round2(total * settings.CO2Factor),
		TreesEquivalent: round1(total * settings.CO2Factor / config.TreeCO2PerYearKg),
		ReadingCount:    len(readings),
		YearlyGoal:      settings.YearlyGoal,
		SystemCapacity:  settings.SystemCapacity,
		CurrencySymbol:  settings.CurrencySymbol,
	}

	if settings.SystemCapacity > 0 {
		summary.SpecificYield = round1(total / settings.SystemCapacity)
	}
	if settings.YearlyGoal > 0 {
		progress := total / settings.YearlyGoal * 100
		if progress > 100 {
			progress = 100
		}
		summary.GoalProgress = round1(progress)
	}

	if len(readings) > 0 {
		// Query returns readings sorted ascending by date.
		first, err := timeline.FormatKey(readings[0].Date, timeline.Daily)
		if err != nil {
			return nil, err
		}
		last, err := timeline.FormatKey(readings[len(readings)-1].Date, timeline.Daily)
		if err != nil {
			return nil, err
		}
		summary.FirstReadingDate = first
		summary.LastReadingDate = last
	}

	return summary, nil
}
