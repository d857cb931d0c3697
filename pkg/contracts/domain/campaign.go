package domain

import "time"

// Campaign represents a promotional discount campaign.
type Campaign struct {
	CampaignID  string    `json:"campaign_id" csv:"campaign_id" validate:"required"`
	StartDate   time.Time `json:"start_date" csv:"start_date"`
	EndDate     time.Time `json:"end_date" csv:"end_date"`
	City        City      `json:"city,omitempty" csv:"city"`
	Channel     Channel   `json:"channel,omitempty" csv:"channel"`
	Category    string    `json:"category,omitempty" csv:"category"`
	DiscountPct float64   `json:"discount_pct" csv:"discount_pct" validate:"min=0,max=100"`
	BudgetAED   float64   `json:"promo_budget_aed" csv:"promo_budget_aed"`
}

// DurationDays returns the campaign length in whole days.
func (c Campaign) DurationDays() int {
	if c.EndDate.Before(c.StartDate) {
		return 0
	}
	return int(c.EndDate.Sub(c.StartDate).Hours() / 24)
}

// ActiveAt reports whether the campaign window covers the given instant.
func (c Campaign) ActiveAt(t time.Time) bool {
	return !t.Before(c.StartDate) && !t.After(c.EndDate)
}
