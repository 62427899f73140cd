package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	want := map[int]Region{
		1: RegionHead,
		2: RegionChest,
		3: RegionBelly,
		4: RegionLeftArm,
		5: RegionRightArm,
		6: RegionLeftLeg,
		7: RegionRightLeg,
		8: RegionNeck,
	}
	seen := make(map[Region]bool)
	for code, region := range want {
		got, ok := Classify(code)
		require.True(t, ok, "code %d", code)
		assert.Equal(t, region, got, "code %d", code)
		assert.False(t, seen[got], "region %s mapped twice", got)
		seen[got] = true
	}
}

func TestClassifyUnknown(t *testing.T) {
	for _, code := range []int{-1, 0, 9, 10, 99, 255, 256, 1 << 20} {
		got, ok := Classify(code)
		assert.False(t, ok, "code %d", code)
		assert.Equal(t, RegionNone, got, "code %d", code)
	}
}

func TestRegionColumns(t *testing.T) {
	assert.Equal(t, "neck", RegionNeck.Column())
	assert.Equal(t, "Neck", RegionNeck.String())
	assert.Equal(t, "left_arm", RegionLeftArm.Column())
	assert.Equal(t, "", RegionNone.Column())
	assert.Equal(t, "None", RegionNone.String())

	regions := Regions()
	require.Len(t, regions, RegionCount)
	columns := make(map[string]bool)
	for _, r := range regions {
		assert.NotEmpty(t, r.Column())
		columns[r.Column()] = true
	}
	assert.Len(t, columns, RegionCount)
}

func TestBotStatusOf(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, BotUnknown, BotStatusOf(nil))
	assert.Equal(t, BotControlled, BotStatusOf(&yes))
	assert.Equal(t, BotHuman, BotStatusOf(&no))

	assert.True(t, BotHuman.IsHuman())
	assert.False(t, BotControlled.IsHuman())
	assert.False(t, BotUnknown.IsHuman())
}
