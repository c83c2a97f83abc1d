package animation

// State is a playback state.
type State int

const (
	// StateIdle accepts frames and waits for Play.
	StateIdle State = iota
	// StatePlaying is the first pass over the frames.
	StatePlaying
	// StateLooping is any pass after the first.
	StateLooping
	// StateStopped is final. The viewer keeps the last frame that was shown.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateLooping:
		return "looping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Infinite is the loop count for playback that only ends with Stop.
const Infinite = -1
