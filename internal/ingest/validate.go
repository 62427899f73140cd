package ingest

import (
	"exstats/internal/model"
	"exstats/internal/model/enum"
	"exstats/pkg/exception"
)

// Rejection explains why an event was not dispatched.
type Rejection struct {
	Reason enum.RejectReason
	Err    error
}

func (r *Rejection) Error() string {
	return r.Err.Error() + ", reason: " + r.Reason.String()
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func reject(reason enum.RejectReason) *Rejection {
	return &Rejection{Reason: reason, Err: exception.ErrValidationRejected}
}

// Validate filters ev and reduces it to a hit.
// Only events from an attacker explicitly resolved as human with positive
// health damage pass; the hit region is optional.
func Validate(ev model.DamageEvent) (model.Hit, error) {
	a := ev.Attacker
	switch {
	case a == nil:
		return model.Hit{}, reject(enum.RejectNoAttacker)
	case a.SteamID64 == 0:
		return model.Hit{}, reject(enum.RejectNoIdentity)
	case !a.Bot.IsHuman():
		return model.Hit{}, reject(enum.RejectBot)
	case ev.DmgHealth <= 0:
		return model.Hit{}, reject(enum.RejectNoDamage)
	case ev.DmgArmor < 0:
		return model.Hit{}, reject(enum.RejectNegativeArmor)
	}

	id, err := model.Normalize(a.SteamID64)
	if err != nil {
		return model.Hit{}, &Rejection{Reason: enum.RejectInvalidIdentity, Err: err}
	}

	region, _ := enum.Classify(ev.HitGroup)
	return model.Hit{
		Identity:  id,
		Region:    region,
		DmgHealth: int64(ev.DmgHealth),
		DmgArmor:  int64(ev.DmgArmor),
	}, nil
}
