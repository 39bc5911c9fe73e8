package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

func TestValidateDataConsistencyNoConflictWhenEqual(t *testing.T) {
	now := time.Now()
	a := session.Document{"currency": "USD", "firstName": "Tari"}
	b := session.Document{"currency": "USD", "firstName": "Tari"}
	assert.Empty(t, ValidateDataConsistency(a, b, now, now))
}

func TestValidateDataConsistencySkipsOneSidedFields(t *testing.T) {
	now := time.Now()
	a := session.Document{"currency": "USD"}
	b := session.Document{"firstName": "Tari"}
	assert.Empty(t, ValidateDataConsistency(a, b, now, now))
}

func TestPreferLatestResolvesByUpdateTime(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	a := session.Document{"currency": "USD"}
	b := session.Document{"currency": "ZWG"}

	conflicts := ValidateDataConsistency(a, b, older, newer)
	require.Len(t, conflicts, 1)
	assert.Equal(t, StrategyPreferLatest, conflicts[0].Strategy)
	assert.Equal(t, "ZWG", conflicts[0].Resolved)

	// Swap recency, same argument order: the other side wins.
	conflicts = ValidateDataConsistency(a, b, newer, older)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "USD", conflicts[0].Resolved)
}

func TestPreferCompleteKeepsLongerName(t *testing.T) {
	now := time.Now()
	a := session.Document{"firstName": "T"}
	b := session.Document{"firstName": "Tariro"}

	conflicts := ValidateDataConsistency(a, b, now, now)
	require.Len(t, conflicts, 1)
	assert.Equal(t, StrategyPreferComplete, conflicts[0].Strategy)
	assert.Equal(t, "Tariro", conflicts[0].Resolved)
}

func TestFormResponsesMergeUnionsMaps(t *testing.T) {
	now := time.Now()
	a := session.Document{"formResponses": map[string]any{"q1": "yes"}}
	b := session.Document{"formResponses": map[string]any{"q2": "no"}}

	conflicts := ValidateDataConsistency(a, b, now, now)
	require.Len(t, conflicts, 1)
	assert.Equal(t, StrategyMerge, conflicts[0].Strategy)
	merged, ok := conflicts[0].Resolved.(session.Document)
	require.True(t, ok)
	assert.Equal(t, "yes", merged.GetString("q1", ""))
	assert.Equal(t, "no", merged.GetString("q2", ""))
}

func TestMergeValuesDeduplicatesLists(t *testing.T) {
	out := mergeValues([]any{"a", "b"}, []any{"b", "c"})
	assert.Equal(t, []any{"a", "b", "c"}, out)
}

func TestNormalizeForChannelRoundTrip(t *testing.T) {
	web := session.Document{
		"selectedBusiness": map[string]any{"id": "5", "name": "Maize"},
		"firstName":        "Tari",
	}

	chat := NormalizeForChannel(web, session.ChannelWhatsApp)
	assert.Equal(t, "5", chat.GetString("selectedCategory", ""))
	assert.Equal(t, "Maize", chat.GetString("selectedCategoryName", ""))
	assert.Nil(t, chat["selectedBusiness"])
	assert.Equal(t, "Tari", chat.GetString("firstName", ""))

	back := NormalizeForChannel(chat, session.ChannelWeb)
	business := back.GetMap("selectedBusiness")
	require.NotNil(t, business)
	assert.Equal(t, "5", business.GetString("id", ""))
	assert.Equal(t, "Maize", business.GetString("name", ""))
	assert.Nil(t, back["selectedCategory"])
	assert.Nil(t, back["selectedCategoryName"])
}

func TestNormalizeForChannelNilData(t *testing.T) {
	out := NormalizeForChannel(nil, session.ChannelWhatsApp)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
