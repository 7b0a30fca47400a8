package usecase

// ProvisionState is a step of one registration attempt. States are only ever
// entered once and in the order below; Succeeded and Failed are terminal.
type ProvisionState int

const (
	StateStart ProvisionState = iota
	StateValidatingInput
	StateCreatingIdentity
	StateInsertingProfile
	StateCompensating
	StateSucceeded
	StateFailed
)

var stateNames = map[ProvisionState]string{
	StateStart:            "start",
	StateValidatingInput:  "validating_input",
	StateCreatingIdentity: "creating_identity",
	StateInsertingProfile: "inserting_profile",
	StateCompensating:     "compensating",
	StateSucceeded:        "succeeded",
	StateFailed:           "failed",
}

func (s ProvisionState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s ProvisionState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var allowedTransitions = map[ProvisionState][]ProvisionState{
	StateStart:            {StateValidatingInput},
	StateValidatingInput:  {StateCreatingIdentity, StateFailed},
	StateCreatingIdentity: {StateInsertingProfile, StateFailed},
	StateInsertingProfile: {StateSucceeded, StateCompensating},
	StateCompensating:     {StateFailed},
}

// CanTransition reports whether to may directly follow from.
func CanTransition(from, to ProvisionState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
