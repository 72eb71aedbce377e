package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/slotgrid/errors"
)

func TestDecompose_Table(t *testing.T) {
	l := Layout{Pipelines: 2, Phases: 3, Rounds: 2}

	tests := []struct {
		slot int
		want Coord
	}{
		{1, Coord{Round: 0, Pipeline: 0, Phase: 0}},
		{2, Coord{Round: 0, Pipeline: 0, Phase: 1}},
		{3, Coord{Round: 0, Pipeline: 0, Phase: 2}},
		{4, Coord{Round: 0, Pipeline: 1, Phase: 0}},
		{6, Coord{Round: 0, Pipeline: 1, Phase: 2}},
		{7, Coord{Round: 1, Pipeline: 0, Phase: 0}},
		{12, Coord{Round: 1, Pipeline: 1, Phase: 2}},
	}

	for _, tt := range tests {
		got, err := l.Decompose(tt.slot)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "slot %d", tt.slot)
	}
}

func TestRoundTrip(t *testing.T) {
	layouts := []Layout{
		{Pipelines: 1, Phases: 1, Rounds: 1},
		{Pipelines: 2, Phases: 2, Rounds: 2},
		{Pipelines: 4, Phases: 4, Rounds: 4},
		{Pipelines: 3, Phases: 5, Rounds: 7},
		{Pipelines: 1, Phases: 9, Rounds: 2},
	}

	for _, l := range layouts {
		t.Run(l.String(), func(t *testing.T) {
			seen := make(map[Coord]bool, l.Size())
			for x := 1; x <= l.Size(); x++ {
				c, err := l.Decompose(x)
				require.NoError(t, err)
				assert.False(t, seen[c], "coordinate %s produced twice", c)
				seen[c] = true

				back, err := l.Compose(c)
				require.NoError(t, err)
				assert.Equal(t, x, back)
			}
			assert.Len(t, seen, l.Size())
		})
	}
}

func TestDecompose_OutOfDomain(t *testing.T) {
	l := Layout{Pipelines: 2, Phases: 2, Rounds: 2}
	for _, x := range []int{0, -1, 9, 100} {
		_, err := l.Decompose(x)
		assert.Error(t, err, "slot %d", x)
	}
}

func TestCompose_OutOfDomain(t *testing.T) {
	l := Layout{Pipelines: 2, Phases: 2, Rounds: 2}
	bad := []Coord{
		{Round: 2},
		{Pipeline: 2},
		{Phase: 2},
		{Round: -1},
	}
	for _, c := range bad {
		_, err := l.Compose(c)
		assert.Error(t, err, "coordinate %+v", c)
	}
}

func TestRoundSpan_Partitions(t *testing.T) {
	l := Layout{Pipelines: 3, Phases: 2, Rounds: 4}

	lo, hi := l.RoundSpan(0)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 6, hi)

	lo, hi = l.RoundSpan(3)
	assert.Equal(t, 19, lo)
	assert.Equal(t, 24, hi)

	// Every slot in a span decomposes to that span's round
	for r := 0; r < l.Rounds; r++ {
		lo, hi := l.RoundSpan(r)
		for x := lo; x <= hi; x++ {
			c, err := l.Decompose(x)
			require.NoError(t, err)
			assert.Equal(t, r, c.Round)
		}
	}
}

func TestDerive(t *testing.T) {
	l := Layout{Pipelines: 4, Phases: 3, Rounds: 5}
	assert.Equal(t, Derivation{Divisor: 1, Modulus: 3}, l.Derive(AxisPhase))
	assert.Equal(t, Derivation{Divisor: 3, Modulus: 4}, l.Derive(AxisPipeline))
	assert.Equal(t, Derivation{Divisor: 12}, l.Derive(AxisRound))

	for x := 1; x <= l.Size(); x++ {
		c, err := l.Decompose(x)
		require.NoError(t, err)
		for _, a := range Axes {
			got := l.Derive(a).Apply(x)
			assert.Equal(t, c.Get(a), got)
			assert.Less(t, got, l.Extent(a))
		}
	}
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{"minimal", Layout{1, 1, 1}, false},
		{"typical", Layout{4, 4, 4}, false},
		{"zero pipelines", Layout{0, 4, 4}, true},
		{"negative phases", Layout{4, -1, 4}, true},
		{"zero rounds", Layout{4, 4, 0}, true},
		{"too large", Layout{1 << 16, 1 << 16, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.layout.Pipelines, tt.layout.Phases, tt.layout.Rounds)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrConfiguration))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCoord_String(t *testing.T) {
	assert.Equal(t, "ROUND_1/PIPELINE_2/PHASE_3", Coord{Round: 0, Pipeline: 1, Phase: 2}.String())
}

func FuzzDecompose(f *testing.F) {
	f.Add(2, 2, 2, 5)
	f.Add(4, 4, 4, 64)
	f.Add(3, 7, 1, 1)

	f.Fuzz(func(t *testing.T, pipelines, phases, rounds, x int) {
		l := Layout{Pipelines: pipelines%16 + 1, Phases: phases%16 + 1, Rounds: rounds%16 + 1}
		if l.Pipelines < 1 || l.Phases < 1 || l.Rounds < 1 {
			return
		}
		c, err := l.Decompose(x)
		if !l.Contains(x) {
			if err == nil {
				t.Fatalf("slot %d accepted outside %s", x, l)
			}
			return
		}
		if err != nil {
			t.Fatalf("decompose %d: %v", x, err)
		}
		back, err := l.Compose(c)
		if err != nil || back != x {
			t.Fatalf("round trip %d -> %s -> %d (%v)", x, c, back, err)
		}
	})
}
