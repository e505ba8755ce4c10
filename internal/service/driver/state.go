package driver

// State is the render driver lifecycle.
type State int

const (
	Uninitialized State = iota
	ModelsLoading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case ModelsLoading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
