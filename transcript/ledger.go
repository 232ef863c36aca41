package transcript

// LedgerEntry records one tool call attempt: which round issued it, which
// tool, and whether the call actually completed. Entries are written only by
// the tool execution phase, never from model output.
type LedgerEntry struct {
	Round     int
	CallID    string
	Tool      string
	Succeeded bool
	Error     string
}

// Ledger is the provenance record of a single execution run. ToolsUsed is
// true iff at least one entry records a successful execution; failed attempts
// are retained for observability but never count as tool use.
type Ledger struct {
	entries []LedgerEntry
}

// Record appends an entry to the ledger.
func (l *Ledger) Record(e LedgerEntry) {
	l.entries = append(l.entries, e)
}

// Entries returns a snapshot of all recorded attempts in order.
func (l *Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded attempts.
func (l *Ledger) Len() int { return len(l.entries) }

// ToolsUsed reports whether any tool call actually succeeded.
func (l *Ledger) ToolsUsed() bool {
	for _, e := range l.entries {
		if e.Succeeded {
			return true
		}
	}
	return false
}

// ToolNames returns the distinct names of successfully executed tools in
// first-use order.
func (l *Ledger) ToolNames() []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, e := range l.entries {
		if !e.Succeeded {
			continue
		}
		if _, ok := seen[e.Tool]; ok {
			continue
		}
		seen[e.Tool] = struct{}{}
		names = append(names, e.Tool)
	}
	return names
}
