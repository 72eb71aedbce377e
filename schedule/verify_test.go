package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/slotgrid/rules"
)

func TestVerify(t *testing.T) {
	cfg := smallJob()
	cfg.GroupCount = 1
	cfg.MaxAllowedResourcePerRound = intPtr(1)
	cfg.Groups = [][]int{{1, 2}}

	tests := []struct {
		name  string
		rules string
		slots map[int]int
		want  []string // violated properties, in report order
	}{
		{
			name:  "satisfied",
			rules: "RESOURCE_1 = PHASE_2 GROUP_1 < RESOURCE_4",
			slots: map[int]int{1: 2, 2: 5, 3: 3, 4: 8},
		},
		{
			name:  "missing resource",
			slots: map[int]int{1: 1, 2: 5, 3: 3},
			want:  []string{"domain"},
		},
		{
			name:  "outside the grid",
			slots: map[int]int{1: 1, 2: 5, 3: 3, 4: 9},
			want:  []string{"domain"},
		},
		{
			name:  "shared slot",
			slots: map[int]int{1: 1, 2: 5, 3: 5, 4: 2},
			want:  []string{"distinct"},
		},
		{
			name:  "numeric rule",
			rules: "RESOURCE_3 > 6",
			slots: map[int]int{1: 1, 2: 5, 3: 3, 4: 2},
			want:  []string{"rule"},
		},
		{
			name:  "structural rule over a group",
			rules: "GROUP_1 = PIPELINE_1",
			slots: map[int]int{1: 1, 2: 7, 3: 3, 4: 2},
			want:  []string{"rule"},
		},
		{
			name:  "cross product",
			rules: "GROUP_1 > RESOURCE_3",
			slots: map[int]int{1: 1, 2: 5, 3: 3, 4: 2},
			want:  []string{"rule"},
		},
		{
			name:  "group load",
			slots: map[int]int{1: 1, 2: 2, 3: 5, 4: 6},
			want:  []string{"group_load"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comparisons, err := rules.Parse(tt.rules)
			require.NoError(t, err)

			var got []string
			for _, v := range Verify(cfg, comparisons, tt.slots) {
				got = append(got, v.Property)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerify_Detail(t *testing.T) {
	comparisons, err := rules.Parse("RESOURCE_1 = ROUND_2")
	require.NoError(t, err)

	v := Verify(smallJob(), comparisons, map[int]int{1: 1, 2: 2, 3: 3, 4: 4})
	require.Len(t, v, 1)
	assert.Equal(t, "rule: rule 1 (RESOURCE_1 = ROUND_2): R1 round is 1", v[0].String())
}
