package enum

// RejectReason is why the pipeline dropped an event before dispatch.
type RejectReason uint8

const (
	_reject_beg RejectReason = iota
	RejectNoAttacker
	RejectNoIdentity
	RejectBot
	RejectNoDamage
	RejectNegativeArmor
	RejectInvalidIdentity
	_reject_end
)

// RejectReasonCount is the number of reject reasons.
const RejectReasonCount = int(_reject_end) - 1

func (r RejectReason) IsAvailable() bool {
	return r > _reject_beg && r < _reject_end
}

func (r RejectReason) String() string {
	switch r {
	case RejectNoAttacker:
		return "no_attacker"
	case RejectNoIdentity:
		return "no_identity"
	case RejectBot:
		return "bot"
	case RejectNoDamage:
		return "no_damage"
	case RejectNegativeArmor:
		return "negative_armor"
	case RejectInvalidIdentity:
		return "invalid_identity"
	default:
		return "unknown"
	}
}

// RejectReasons lists every reject reason.
func RejectReasons() []RejectReason {
	out := make([]RejectReason, 0, RejectReasonCount)
	for r := _reject_beg + 1; r < _reject_end; r++ {
		out = append(out, r)
	}
	return out
}
