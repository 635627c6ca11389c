package rtm

// A transaction's read log records what it observed while reading, in
// whichever of the two representations spec §3 names: an orec-style list
// of the orecs it sampled, or a NOrec-style value list of (address, value,
// mask) triples. A single transaction uses exactly one representation,
// selected by its algorithm; Descriptor carries one of each (OrecReads,
// ValueReads) so algs can pick without a separate struct per family.

// OrecReadLog is the orec-style read log: a list of orecs observed during
// the transaction, walked at validation time to check none has moved past
// the start_time that was valid when it was sampled.
type OrecReadLog struct {
	entries []*Orec
}

// Append records an orec this transaction read through.
func (l *OrecReadLog) Append(o *Orec) {
	l.entries = append(l.entries, o)
}

// Len reports how many orecs are recorded.
func (l *OrecReadLog) Len() int { return len(l.entries) }

// Validate reports whether every recorded orec is still at or below
// start_time and not locked by someone else (spec §4.2's "validate read
// log against start_time").
func (l *OrecReadLog) Validate(startTime uint64, selfLock uint64) bool {
	for _, o := range l.entries {
		w := o.Load()
		if IsLocked(w) {
			if w == selfLock {
				continue
			}
			return false
		}
		if VersionOf(w) > startTime {
			return false
		}
	}
	return true
}

// Reset clears the log for reuse by the next transaction on this thread.
func (l *OrecReadLog) Reset() { l.entries = l.entries[:0] }

// ValueEntry is one (address, observed-value, mask) triple in a value
// list, the NOrec-style read log.
type ValueEntry struct {
	Addr  Addr
	Value uint64
	Mask  uint64
}

// ValueList is NOrec's read log: instead of recording metadata, it
// records the actual bytes observed, and validates by re-reading memory
// and comparing, which is the mechanism spec §4.3 describes as "a single
// sequence lock... read log re-validated directly against memory."
type ValueList struct {
	entries []ValueEntry
}

// Append records an observed (address, value, mask) triple.
func (l *ValueList) Append(a Addr, value, mask uint64) {
	l.entries = append(l.entries, ValueEntry{Addr: a, Value: value, Mask: mask})
}

// Validate re-reads every recorded address and confirms the masked bytes
// still match what was observed.
func (l *ValueList) Validate() bool {
	for _, e := range l.entries {
		cur := loadWord(e.Addr) & e.Mask
		if cur != e.Value&e.Mask {
			return false
		}
	}
	return true
}

// Find returns the most recently appended value for addr, used to satisfy
// a read from a transaction's own value list without re-touching memory.
func (l *ValueList) Find(a Addr) (uint64, uint64, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Addr == a {
			return l.entries[i].Value, l.entries[i].Mask, true
		}
	}
	return 0, 0, false
}

// Reset clears the list for reuse.
func (l *ValueList) Reset() { l.entries = l.entries[:0] }

// Len reports how many entries are recorded.
func (l *ValueList) Len() int { return len(l.entries) }
