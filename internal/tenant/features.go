package tenant

import "shopcrm/internal/model"

// Plan tiers, lowest to highest. The ordinal position decides feature access.
const (
	TierStarter    = "starter"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// Feature keys
const (
	FeatureDualPricing   = "dual_pricing"
	FeatureAppointments  = "appointments"
	FeatureInventory     = "inventory"
	FeatureReports       = "reports"
	FeatureCSVExport     = "csv_export"
	FeatureSMSReminders  = "sms_reminders"
	FeatureCustomBrand   = "custom_branding"
)

// tierRank is the fixed tier ordering. Unknown tiers rank below starter.
var tierRank = map[string]int{
	TierStarter:    1,
	TierPro:        2,
	TierEnterprise: 3,
}

// featureMinTier maps each feature to the lowest tier that includes it.
// This table is static: gating never depends on tenant state beyond the tier.
var featureMinTier = map[string]string{
	FeatureDualPricing:  TierStarter,
	FeatureAppointments: TierStarter,
	FeatureInventory:    TierPro,
	FeatureCSVExport:    TierPro,
	FeatureReports:      TierPro,
	FeatureSMSReminders: TierEnterprise,
	FeatureCustomBrand:  TierEnterprise,
}

var displayNames = map[string]string{
	TierStarter:         "Starter",
	TierPro:             "Pro",
	TierEnterprise:      "Enterprise",
	FeatureDualPricing:  "Dual Pricing",
	FeatureAppointments: "Appointments",
	FeatureInventory:    "Parts Inventory",
	FeatureReports:      "Reports",
	FeatureCSVExport:    "CSV Export",
	FeatureSMSReminders: "SMS Reminders",
	FeatureCustomBrand:  "Custom Branding",
}

// HasFeature reports whether the tenant's plan tier includes the feature.
// True iff the tier's ordinal is at or above the feature's minimum tier.
func HasFeature(t *model.Tenant, featureKey string) bool {
	if t == nil {
		return false
	}
	minTier, ok := featureMinTier[featureKey]
	if !ok {
		return false
	}
	return tierRank[t.PlanTier] >= tierRank[minTier]
}

// MinimumTierFor returns the lowest tier that includes the feature
func MinimumTierFor(featureKey string) (string, bool) {
	tier, ok := featureMinTier[featureKey]
	return tier, ok
}

// DisplayNameFor returns the human-readable name of a tier or feature key
func DisplayNameFor(key string) string {
	if name, ok := displayNames[key]; ok {
		return name
	}
	return key
}

// Features returns the feature keys available on a tier, for the settings UI
func Features(tier string) []string {
	rank := tierRank[tier]
	var keys []string
	for key, minTier := range featureMinTier {
		if rank >= tierRank[minTier] {
			keys = append(keys, key)
		}
	}
	return keys
}
