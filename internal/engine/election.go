package engine

// hysteresisFloor is the minimum remaining validity of currently-held data
// below which an incoming payload with a higher origin is adopted without
// the half-window hysteresis check, per spec.md §4.2.
const hysteresisFloor = 10 // seconds

// ShouldAdopt implements the origin-election rule of spec.md §4.2: a
// received reply replaces current state when it is valid and either no
// data is held or its origin is strictly newer. When current data still
// has at least [hysteresisFloor] seconds of validity left and the
// incoming payload differs from what is held, the incoming payload is
// adopted only when its own remaining validity is at least half of its
// (expires−origin) window — this keeps two equally-authoritative sources
// from flapping.
func ShouldAdopt(
	hasCurrent bool,
	curOrigin, curValid uint32,
	incOrigin, incValid, incWindow uint32,
	payloadDiffers bool,
) (adopt bool) {
	if incValid == 0 {
		return false
	}

	if !hasCurrent {
		return true
	}

	if incOrigin <= curOrigin {
		return false
	}

	if !payloadDiffers || curValid < hysteresisFloor {
		return true
	}

	return incValid*2 >= incWindow
}
