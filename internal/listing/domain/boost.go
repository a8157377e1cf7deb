package domain

import (
	"fmt"
	"time"
)

// BoostOrder is a completed payment for featured placement. PaymentID is the
// idempotency token; an empty PaymentID applies the boost unconditionally.
// Source names the channel that delivered the order, for logs and metrics.
type BoostOrder struct {
	ListingID     string
	DurationHours int
	PaymentID     string
	Source        string
}

func (o BoostOrder) Validate() error {
	if o.ListingID == "" {
		return fmt.Errorf("%w: listing id is required", ErrInvalidInput)
	}
	if o.DurationHours <= 0 {
		return fmt.Errorf("%w: boost duration must be positive, got %d hours", ErrInvalidInput, o.DurationHours)
	}
	return nil
}

func (o BoostOrder) Duration() time.Duration {
	return time.Duration(o.DurationHours) * time.Hour
}

// BoostExpiry computes the new featured-until stamp. A boost that is still
// running is extended from its current end, otherwise from now.
func BoostExpiry(current *time.Time, now time.Time, d time.Duration) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.Add(d)
}

// BoostPlan is a purchasable boost option.
type BoostPlan struct {
	Hours      int
	PriceCents int64
	Title      string
}

// BoostPlans is the fixed price table offered at checkout.
var BoostPlans = []BoostPlan{
	{Hours: 24, PriceCents: 300, Title: "Featured listing - 24 hours"},
	{Hours: 48, PriceCents: 500, Title: "Featured listing - 48 hours"},
}

// PlanFor returns the checkout plan for the given duration.
func PlanFor(hours int) (BoostPlan, error) {
	for _, p := range BoostPlans {
		if p.Hours == hours {
			return p, nil
		}
	}
	return BoostPlan{}, fmt.Errorf("%w: no boost plan for %d hours", ErrInvalidInput, hours)
}

// BoostResult reports the outcome of ApplyBoost. Applied is false when the
// payment token had already been consumed and nothing changed.
type BoostResult struct {
	Listing *Listing
	Applied bool
}

// SweepResult summarizes one expiry sweep.
type SweepResult struct {
	Candidates int
	Expired    int
	Skipped    int
	Failed     int
	ExpiredIDs []string
}
