package feed

import (
	"strconv"

	"exstats/internal/model"
	"exstats/internal/model/enum"
	"exstats/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// wireEvent is one JSON line sent by the game-server bridge.
//
//	{"attacker":{"steamid":"76561197960287930","bot":false},"hitgroup":1,"dmg_health":27,"dmg_armor":0}
type wireEvent struct {
	Attacker  *wireAttacker `json:"attacker"`
	HitGroup  int           `json:"hitgroup"`
	DmgHealth int           `json:"dmg_health"`
	DmgArmor  int           `json:"dmg_armor"`
}

type wireAttacker struct {
	SteamID steamID64 `json:"steamid"`
	Bot     *bool     `json:"bot"`
}

// steamID64 accepts both a JSON number and a quoted decimal string,
// since 64-bit ids lose precision in JavaScript senders.
type steamID64 uint64

func (s *steamID64) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	if string(b) == "null" || len(b) == 0 {
		*s = 0
		return nil
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return err
	}
	*s = steamID64(v)
	return nil
}

// DecodeEvent parses one wire record.
func DecodeEvent(line []byte) (model.DamageEvent, error) {
	var w wireEvent
	if err := sonic.Unmarshal(line, &w); err != nil {
		return model.DamageEvent{}, errors.Wrap(exception.ErrFeedMalformed, "decode damage event").With("cause", err.Error())
	}

	ev := model.DamageEvent{
		HitGroup:  w.HitGroup,
		DmgHealth: w.DmgHealth,
		DmgArmor:  w.DmgArmor,
	}
	if w.Attacker != nil {
		ev.Attacker = &model.Attacker{
			SteamID64: uint64(w.Attacker.SteamID),
			Bot:       enum.BotStatusOf(w.Attacker.Bot),
		}
	}
	return ev, nil
}

// EncodeEvent renders ev in wire form; used by bridges and tests.
func EncodeEvent(ev model.DamageEvent) ([]byte, error) {
	w := wireEvent{
		HitGroup:  ev.HitGroup,
		DmgHealth: ev.DmgHealth,
		DmgArmor:  ev.DmgArmor,
	}
	if a := ev.Attacker; a != nil {
		var bot *bool
		switch a.Bot {
		case enum.BotHuman:
			bot = new(bool)
		case enum.BotControlled:
			v := true
			bot = &v
		}
		w.Attacker = &wireAttacker{SteamID: steamID64(a.SteamID64), Bot: bot}
	}
	return sonic.Marshal(w)
}

func (s steamID64) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 22)
	b = append(b, '"')
	b = strconv.AppendUint(b, uint64(s), 10)
	b = append(b, '"')
	return b, nil
}
