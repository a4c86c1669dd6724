package encode

// dpbRing hands out reference-picture slots round-robin. The counter
// wraps; slot selection only depends on it modulo the slot count, so
// wrapping is harmless.
type dpbRing struct {
	counter uint64
	slots   int
}

func newDPBRing(slots int) dpbRing {
	if slots < 1 {
		slots = 1
	}
	return dpbRing{slots: slots}
}

// next returns the slot index for the next encode and advances the
// counter.
func (r *dpbRing) next() int {
	slot := int(r.counter % uint64(r.slots))
	r.counter++
	return slot
}
