package cerr

// Code is a coarse-grained error classification, independent of the error
// Kind. It exists separately from Kind because two different Kinds can share
// a Code (a ConfigError and a FatalError are both "precondition failed", say)
// while callers that only care about retry/exit-code behavior usually want
// the Kind, not the Code.
type Code int

const (
	Unknown Code = iota
	InvalidArgument
	NotFound
	AlreadyExists
	FailedPrecondition
	Aborted
	Unavailable
	DeadlineExceeded
	Canceled
	Internal
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case FailedPrecondition:
		return "failed_precondition"
	case Aborted:
		return "aborted"
	case Unavailable:
		return "unavailable"
	case DeadlineExceeded:
		return "deadline_exceeded"
	case Canceled:
		return "canceled"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}
