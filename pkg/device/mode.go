package device

// Mode is the device operating state. Idle is the initial state and is
// reachable from every other state via STOP or a long press.
type Mode uint8

const (
	// ModeIdle: no sampling, no run in progress.
	ModeIdle Mode = iota
	// ModeStreaming: continuous acquisition started by the START command.
	ModeStreaming
	// ModeAuthValid: button-triggered valid-user test, auto-stops after 10 s.
	ModeAuthValid
	// ModeAuthInvalid: button-triggered invalid-user test, auto-stops after 10 s.
	ModeAuthInvalid
)

// String returns the wire name used in STATUS replies.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeStreaming:
		return "STREAMING"
	case ModeAuthValid:
		return "AUTH_VALID"
	case ModeAuthInvalid:
		return "AUTH_INVALID"
	default:
		return "UNKNOWN"
	}
}

// active reports whether the sample scheduler should be running.
func (m Mode) active() bool { return m != ModeIdle }

// test reports whether the mode is a button-triggered test with an auto-stop.
func (m Mode) test() bool { return m == ModeAuthValid || m == ModeAuthInvalid }

// testName returns the human-readable test label for completion reports.
func (m Mode) testName() string {
	if m == ModeAuthValid {
		return "VALID"
	}
	return "INVALID"
}

// Profile selects which synthesis function feeds the sampler.
type Profile uint8

const (
	// ProfileCooperative: clean, rhythmic signal of a cooperating subject.
	ProfileCooperative Profile = iota
	// ProfileAdversarial: noisy, incoherent signal of an impostor.
	ProfileAdversarial
)

// String returns the wire name used in STATUS replies.
func (p Profile) String() string {
	if p == ProfileAdversarial {
		return "ADVERSARIAL"
	}
	return "COOPERATIVE"
}
