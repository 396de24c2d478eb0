package pipeline

// State is a step of a single generation run.
type State string

const (
	StateStart             State = "START"
	StateOutlineRequested  State = "OUTLINE_REQUESTED"
	StateOutlineParsed     State = "OUTLINE_PARSED"
	StateContentRequested  State = "CONTENT_REQUESTED"
	StateContentParsed     State = "CONTENT_PARSED"
	StateResourcesAttached State = "RESOURCES_ATTACHED"
	StateAggregated        State = "AGGREGATED"
	StatePersisted         State = "PERSISTED"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Progress is notified on every transition. chapter is zero for
// course-level states. It may be called from several goroutines.
type Progress func(requestID string, state State, chapter int)
