package bytecode

// Metadata is the state-value metadata persisted alongside a module's bytes.
// It is opaque to the caching layer and carried through unchanged so the
// surrounding executor can account for storage deposits without re-reading
// the base view.
type Metadata struct {
	CreationTimeUsecs uint64
	SlotDeposit       uint64
	BytesDeposit      uint64
}
