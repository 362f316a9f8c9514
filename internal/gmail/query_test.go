package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTiers(t *testing.T) {
	tiers := SearchTiers("1d", []string{"morningbrew.com", "axios.com"}, "tldr")

	require.Len(t, tiers, 3)
	assert.Equal(t, "newer_than:1d AND (from:morningbrew.com OR from:axios.com)", tiers[0].Query)
	assert.Equal(t, int64(50), tiers[0].Max)
	assert.Equal(t,
		"newer_than:1d AND (subject:newsletter OR subject:daily OR subject:weekly OR subject:digest OR subject:roundup OR subject:briefing OR from:tldr OR subject:tldr)",
		tiers[1].Query)
	assert.Equal(t, int64(50), tiers[1].Max)
	assert.Equal(t, "newer_than:1d", tiers[2].Query)
	assert.Equal(t, int64(100), tiers[2].Max)
}

func TestSearchTiers_NoDomains(t *testing.T) {
	tiers := SearchTiers("7d", nil, "")

	require.Len(t, tiers, 2)
	assert.NotContains(t, tiers[0].Query, "from:")
	assert.Equal(t, "newer_than:7d", tiers[1].Query)
}
