package tenant

import (
	"testing"

	"shopcrm/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestHasFeature(t *testing.T) {
	tests := []struct {
		name    string
		tier    string
		feature string
		want    bool
	}{
		{"starter gets dual pricing", TierStarter, FeatureDualPricing, true},
		{"starter gets appointments", TierStarter, FeatureAppointments, true},
		{"starter lacks inventory", TierStarter, FeatureInventory, false},
		{"starter lacks reports", TierStarter, FeatureReports, false},
		{"pro gets inventory", TierPro, FeatureInventory, true},
		{"pro gets csv export", TierPro, FeatureCSVExport, true},
		{"pro lacks sms reminders", TierPro, FeatureSMSReminders, false},
		{"enterprise gets everything", TierEnterprise, FeatureSMSReminders, true},
		{"enterprise gets lower tier features", TierEnterprise, FeatureDualPricing, true},
		{"unknown feature unavailable", TierEnterprise, "time_travel", false},
		{"unknown tier ranks below starter", "ultimate", FeatureDualPricing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := &model.Tenant{PlanTier: tt.tier}
			assert.Equal(t, tt.want, HasFeature(tenant, tt.feature))
		})
	}
}

func TestHasFeatureNilTenant(t *testing.T) {
	assert.False(t, HasFeature(nil, FeatureDualPricing))
}

func TestHasFeatureOrdinalRule(t *testing.T) {
	// hasFeature(tier X, feature requiring tier Y) iff rank(X) >= rank(Y)
	tiers := []string{TierStarter, TierPro, TierEnterprise}
	for i, tier := range tiers {
		for j, required := range tiers {
			for feature, minTier := range featureMinTier {
				if minTier != required {
					continue
				}
				tenant := &model.Tenant{PlanTier: tier}
				assert.Equal(t, i >= j, HasFeature(tenant, feature),
					"tier %s, feature %s (requires %s)", tier, feature, required)
			}
		}
	}
}

func TestMinimumTierFor(t *testing.T) {
	tier, ok := MinimumTierFor(FeatureReports)
	assert.True(t, ok)
	assert.Equal(t, TierPro, tier)

	_, ok = MinimumTierFor("nonexistent")
	assert.False(t, ok)
}

func TestDisplayNameFor(t *testing.T) {
	assert.Equal(t, "Pro", DisplayNameFor(TierPro))
	assert.Equal(t, "Dual Pricing", DisplayNameFor(FeatureDualPricing))
	// unknown keys fall through unchanged
	assert.Equal(t, "mystery", DisplayNameFor("mystery"))
}

func TestFeaturesByTier(t *testing.T) {
	starter := Features(TierStarter)
	pro := Features(TierPro)
	enterprise := Features(TierEnterprise)

	assert.Contains(t, starter, FeatureDualPricing)
	assert.NotContains(t, starter, FeatureInventory)
	assert.Contains(t, pro, FeatureInventory)
	assert.Contains(t, enterprise, FeatureSMSReminders)
	assert.Greater(t, len(enterprise), len(pro))
	assert.Greater(t, len(pro), len(starter))
}
