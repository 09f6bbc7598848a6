// internal/domain/catalog.go
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Network is a mobile operator airtime and data can be bought for.
type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DataPlan is a fixed-price data bundle.
type DataPlan struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SubscriptionPlan is a plan an admin can grant.
type SubscriptionPlan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Duration    string          `json:"duration"`
	Recommended bool            `json:"recommended,omitempty"`
}

const (
	// MinAirtimeAmount is the smallest airtime top-up accepted.
	MinAirtimeAmount = 50
	// MinPhoneDigits is the shortest phone number accepted for purchases.
	MinPhoneDigits = 11
	// DefaultSubscriptionPlan is granted when an approval names no plan.
	DefaultSubscriptionPlan = "Monthly Plan"
)

var Networks = []Network{
	{ID: "mtn", Name: "MTN"},
	{ID: "glo", Name: "GLO"},
	{ID: "airtel", Name: "Airtel"},
	{ID: "9mobile", Name: "9Mobile"},
}

var DataPlans = []DataPlan{
	{ID: "100mb", Name: "100MB / 1 Day", Price: decimal.NewFromInt(100)},
	{ID: "1gb", Name: "1GB / 30 Days", Price: decimal.NewFromInt(1200)},
	{ID: "2gb", Name: "2.5GB / 30 Days", Price: decimal.NewFromInt(2000)},
	{ID: "10gb", Name: "10GB / 30 Days", Price: decimal.NewFromInt(5000)},
	{ID: "unlimited", Name: "Unlimited / 30 Days", Price: decimal.NewFromInt(20000)},
}

var SubscriptionPlans = []SubscriptionPlan{
	{ID: "weekly", Name: "Weekly Plan", Price: decimal.NewFromInt(6500), Duration: "7 Days"},
	{ID: "monthly", Name: "Monthly Plan", Price: decimal.NewFromInt(8000), Duration: "30 Days", Recommended: true},
	{ID: "yearly", Name: "Yearly Plan", Price: decimal.NewFromInt(50000), Duration: "365 Days"},
}

// FindNetwork looks a network up by ID, case-insensitively.
func FindNetwork(id string) (Network, bool) {
	for _, n := range Networks {
		if strings.EqualFold(n.ID, strings.TrimSpace(id)) {
			return n, true
		}
	}
	return Network{}, false
}

// FindDataPlan looks a data plan up by ID.
func FindDataPlan(id string) (DataPlan, bool) {
	for _, p := range DataPlans {
		if p.ID == strings.TrimSpace(id) {
			return p, true
		}
	}
	return DataPlan{}, false
}

// FindSubscriptionPlan accepts either a plan ID ("monthly") or its name ("Monthly Plan").
func FindSubscriptionPlan(idOrName string) (SubscriptionPlan, bool) {
	key := strings.TrimSpace(idOrName)
	for _, p := range SubscriptionPlans {
		if strings.EqualFold(p.ID, key) || strings.EqualFold(p.Name, key) {
			return p, true
		}
	}
	return SubscriptionPlan{}, false
}

// IsPhoneNumber reports whether s is all digits and long enough.
func IsPhoneNumber(s string) bool {
	if len(s) < MinPhoneDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
