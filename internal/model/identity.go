package model

import (
	"strconv"
	"strings"

	"exstats/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	// SteamID64Base is the SteamID64 of individual account 0 in the public universe.
	SteamID64Base uint64 = 76561197960265728

	// steamID64Max is the last SteamID64 whose account id still fits the 32-bit field.
	steamID64Max = SteamID64Base + 0xFFFFFFFF

	identityPrefix = "STEAM_1:"
)

// Identity is the canonical player key, STEAM_1:<authServer>:<authId>.
type Identity string

func (id Identity) String() string {
	return string(id)
}

// IsZero reports whether id is empty.
func (id Identity) IsZero() bool {
	return len(id) == 0
}

// Normalize converts a SteamID64 into its canonical identity.
func Normalize(raw uint64) (Identity, error) {
	if raw <= SteamID64Base || raw > steamID64Max {
		return "", errors.Wrap(exception.ErrInvalidIdentity, "normalize").With("raw", raw)
	}

	v := raw - SteamID64Base
	authServer := v & 1
	authID := v >> 1

	buf := make([]byte, 0, len(identityPrefix)+12)
	buf = append(buf, identityPrefix...)
	buf = strconv.AppendUint(buf, authServer, 10)
	buf = append(buf, ':')
	buf = strconv.AppendUint(buf, authID, 10)
	return Identity(buf), nil
}

// ParseIdentity normalizes the decimal text form of a SteamID64.
func ParseIdentity(s string) (Identity, error) {
	raw, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return "", errors.Wrap(exception.ErrInvalidIdentity, "parse identity").With("input", s)
	}
	return Normalize(raw)
}
