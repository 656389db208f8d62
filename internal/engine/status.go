package engine

// StatusKind classifies a Status
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusWarning
	StatusError
)

// String returns the string representation of the kind
func (k StatusKind) String() string {
	switch k {
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "info"
	}
}

// Operations a Status can refer to
const (
	OpReload = "reload"
	OpToggle = "toggle"
)

// Status is the outcome of one load cycle or one mutation
type Status struct {
	Kind    StatusKind
	Op      string
	Package string // Set for toggles
	Message string
	Err     error
}

// Text returns a one-line description for display
func (s Status) Text() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return s.Message
}
