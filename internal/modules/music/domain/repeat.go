package domain

// RepeatMode controls what happens to the current track when it ends.
type RepeatMode int

const (
	// RepeatOff plays each track once.
	RepeatOff RepeatMode = iota
	// RepeatSingle replays the current track when it ends.
	RepeatSingle
	// RepeatAll re-appends each finished track to the tail of the queue.
	RepeatAll
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatSingle:
		return "single"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a string to a RepeatMode. Unrecognized input
// maps to RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "single":
		return RepeatSingle
	case "all":
		return RepeatAll
	default:
		return RepeatOff
	}
}
