package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelObservations(t *testing.T) {
	type obs struct {
		scrollY int
		fire    bool
		state   SentinelState
	}

	// viewport 10 rows, document 50 rows: bottom at scrollY >= 40
	tests := []struct {
		name string
		seq  []obs
	}{
		{
			name: "fires once on arrival",
			seq: []obs{
				{0, false, SentinelIdle},
				{20, false, SentinelIdle},
				{40, true, SentinelTriggered},
			},
		},
		{
			name: "holding the bottom does not refire",
			seq: []obs{
				{40, true, SentinelTriggered},
				{40, false, SentinelAwaitingRearm},
				{41, false, SentinelAwaitingRearm},
				{40, false, SentinelAwaitingRearm},
			},
		},
		{
			name: "rearms after scrolling away",
			seq: []obs{
				{40, true, SentinelTriggered},
				{40, false, SentinelAwaitingRearm},
				{39, false, SentinelIdle},
				{40, true, SentinelTriggered},
			},
		},
		{
			name: "leaving straight from triggered rearms",
			seq: []obs{
				{45, true, SentinelTriggered},
				{10, false, SentinelIdle},
				{45, true, SentinelTriggered},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s Sentinel
			for i, o := range tc.seq {
				got := s.Observe(o.scrollY, 10, 50)
				assert.Equal(t, o.fire, got, "step %d fire", i)
				assert.Equal(t, o.state, s.State(), "step %d state", i)
			}
		})
	}
}

func TestSentinelDocumentGrows(t *testing.T) {
	var s Sentinel
	assert.True(t, s.Observe(40, 10, 50))

	// A page was appended; the same offset is now far from the bottom.
	assert.False(t, s.Observe(41, 10, 80))
	assert.Equal(t, SentinelIdle, s.State())
	assert.True(t, s.Observe(70, 10, 80))
}

func TestSentinelShortDocument(t *testing.T) {
	var s Sentinel
	// Content shorter than the viewport is always at the bottom.
	assert.True(t, s.Observe(0, 10, 4))
	assert.False(t, s.Observe(0, 10, 4))
}

func TestSentinelMargin(t *testing.T) {
	s := Sentinel{Margin: 5}
	assert.False(t, s.Observe(34, 10, 50))
	assert.True(t, s.Observe(35, 10, 50))
}

func TestSentinelReset(t *testing.T) {
	var s Sentinel
	s.Observe(40, 10, 50)
	s.Observe(40, 10, 50)
	assert.Equal(t, SentinelAwaitingRearm, s.State())

	s.Reset()
	assert.Equal(t, SentinelIdle, s.State())
	assert.True(t, s.Observe(40, 10, 50))
}

func TestSentinelStateString(t *testing.T) {
	assert.Equal(t, "idle", SentinelIdle.String())
	assert.Equal(t, "triggered", SentinelTriggered.String())
	assert.Equal(t, "awaiting-rearm", SentinelAwaitingRearm.String())
}
