package trades

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteerrors "github.com/fieldsites/sitebuilder/internal/errors"
)

func TestNewRegistryParsesEmbeddedTables(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.Contains(t, r.Trades(), "hvac")
	assert.Contains(t, r.Trades(), "plumbing")
	assert.Contains(t, r.Trades(), GeneralTrade)
}

func TestEveryTradeTableIsComplete(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	for _, trade := range r.Trades() {
		tc, err := r.Get(trade)
		require.NoError(t, err)
		assert.NotEmpty(t, tc.DisplayName, "trade %s", trade)
		assert.NotEmpty(t, tc.Hero.HeadlineTemplate, "trade %s", trade)
		assert.NotEmpty(t, tc.Categories, "trade %s", trade)
		assert.NotEmpty(t, tc.Palette.Primary, "trade %s", trade)
		assert.NotEmpty(t, tc.SEO.TitleTemplate, "trade %s", trade)
		assert.Greater(t, tc.Booking.LeadTimeHours, 0, "trade %s", trade)

		for _, c := range tc.Categories {
			assert.NotEmpty(t, c.Name, "trade %s category", trade)
			assert.NotEmpty(t, c.Slug, "trade %s category %s", trade, c.Name)
		}
	}
}

func TestGetUnknownTrade(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Get("blacksmithing")
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryContent))

	tc := r.GetOrGeneral("blacksmithing")
	assert.Equal(t, GeneralTrade, tc.Trade)
}

func TestEmergencyCategoryDetection(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	hvac, err := r.Get("hvac")
	require.NoError(t, err)
	assert.True(t, hvac.HasEmergencyCategory())

	roofing, err := r.Get("roofing")
	require.NoError(t, err)
	assert.False(t, roofing.HasEmergencyCategory())
	assert.Empty(t, roofing.Hero.EmergencyMessage)
}

func TestCoreServiceAllowList(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	hvac, err := r.Get("hvac")
	require.NoError(t, err)
	assert.True(t, hvac.IsCoreService("ac-repair"))
	assert.False(t, hvac.IsCoreService("duct-cleaning"))
}
