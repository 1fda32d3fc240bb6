package threadsync

type (
	// Priority is a portable thread scheduling priority, which is mapped
	// onto the native range of the thread's scheduling Policy.
	Priority int

	// Policy is a portable thread scheduling policy.
	Policy int
)

const (
	// PriorityError is returned when the priority cannot be determined.
	PriorityError Priority = iota
	PriorityMinimum
	PriorityLower
	PriorityMedium
	PriorityHigher
	PriorityMaximum
)

const (
	// PolicyError is returned when the policy cannot be determined.
	PolicyError Policy = iota
	// PolicyDefault is the platform's default time-sharing policy.
	PolicyDefault
	// PolicyFifo is first-in first-out real-time scheduling.
	PolicyFifo
	// PolicyRoundRobin is round-robin real-time scheduling.
	PolicyRoundRobin
)

// Valid reports whether p is one of PriorityMinimum through PriorityMaximum.
func (p Priority) Valid() bool {
	return p >= PriorityMinimum && p <= PriorityMaximum
}

func (p Priority) String() string {
	switch p {
	case PriorityMinimum:
		return `minimum`
	case PriorityLower:
		return `lower`
	case PriorityMedium:
		return `medium`
	case PriorityHigher:
		return `higher`
	case PriorityMaximum:
		return `maximum`
	default:
		return `error`
	}
}

// Valid reports whether p is one of PolicyDefault, PolicyFifo, or
// PolicyRoundRobin.
func (p Policy) Valid() bool {
	return p >= PolicyDefault && p <= PolicyRoundRobin
}

func (p Policy) String() string {
	switch p {
	case PolicyDefault:
		return `default`
	case PolicyFifo:
		return `fifo`
	case PolicyRoundRobin:
		return `round-robin`
	default:
		return `error`
	}
}

// niceValue maps a priority onto the nice range used by time-sharing
// policies (higher priority, lower nice).
func niceValue(p Priority) int {
	switch p {
	case PriorityMinimum:
		return 19
	case PriorityLower:
		return 10
	case PriorityHigher:
		return -10
	case PriorityMaximum:
		return -20
	default:
		return 0
	}
}

// priorityFromNice is the inverse of niceValue, rounding to the nearest
// step.
func priorityFromNice(nice int) Priority {
	switch {
	case nice >= 15:
		return PriorityMinimum
	case nice >= 5:
		return PriorityLower
	case nice > -5:
		return PriorityMedium
	case nice > -15:
		return PriorityHigher
	default:
		return PriorityMaximum
	}
}

// realtimeValue maps a priority onto the 1-99 range used by real-time
// policies.
func realtimeValue(p Priority) uint32 {
	switch p {
	case PriorityMinimum:
		return 1
	case PriorityLower:
		return 25
	case PriorityHigher:
		return 75
	case PriorityMaximum:
		return 99
	default:
		return 50
	}
}

// priorityFromRealtime is the inverse of realtimeValue, rounding to the
// nearest step.
func priorityFromRealtime(v uint32) Priority {
	switch {
	case v <= 12:
		return PriorityMinimum
	case v <= 37:
		return PriorityLower
	case v <= 62:
		return PriorityMedium
	case v <= 87:
		return PriorityHigher
	default:
		return PriorityMaximum
	}
}
