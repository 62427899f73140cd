package model

import (
	"testing"

	"exstats/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  uint64
		want Identity
	}{
		{raw: SteamID64Base + 1, want: "STEAM_1:1:0"},
		{raw: SteamID64Base + 2, want: "STEAM_1:0:1"},
		{raw: 76561197960287930, want: "STEAM_1:0:11101"},
		{raw: 76561198000000000, want: "STEAM_1:0:19867136"},
		{raw: SteamID64Base + 0xFFFFFFFF, want: "STEAM_1:1:2147483647"},
	}

	for _, tc := range cases {
		got, err := Normalize(tc.raw)
		require.NoError(t, err, "raw %d", tc.raw)
		assert.Equal(t, tc.want, got, "raw %d", tc.raw)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	for raw := SteamID64Base + 1; raw < SteamID64Base+2000; raw += 7 {
		first, err := Normalize(raw)
		require.NoError(t, err)
		second, err := Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestNormalizeRejectsOutOfRange(t *testing.T) {
	for _, raw := range []uint64{0, 1, 12345, SteamID64Base - 1, SteamID64Base, SteamID64Base + 0x100000000, ^uint64(0)} {
		id, err := Normalize(raw)
		require.ErrorIs(t, err, exception.ErrInvalidIdentity, "raw %d", raw)
		assert.True(t, id.IsZero(), "raw %d produced %q", raw, id)
	}
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity(" 76561197960287930 ")
	require.NoError(t, err)
	assert.Equal(t, Identity("STEAM_1:0:11101"), id)

	for _, in := range []string{"", "abc", "-1", "76561197960265728"} {
		_, err := ParseIdentity(in)
		require.ErrorIs(t, err, exception.ErrInvalidIdentity, "input %q", in)
	}
}
