package crawl

// State is the phase a Session is in.
type State int

const (
	// StateInit is the state before any work.
	StateInit State = iota
	// StateLoadDict reads an existing tag dictionary.
	StateLoadDict
	// StateBootstrapDict builds the dictionary from the tag index pages.
	StateBootstrapDict
	// StateProcessGroups downloads article groups.
	StateProcessGroups
	// StateDone means every group was processed.
	StateDone
	// StateFailed means the session stopped on an unrecoverable error.
	StateFailed
)

// String returns the snake_case name of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoadDict:
		return "load_dict"
	case StateBootstrapDict:
		return "bootstrap_dict"
	case StateProcessGroups:
		return "process_groups"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
