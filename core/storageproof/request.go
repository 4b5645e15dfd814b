package storageproof

import "fmt"

// RequestState is the lifecycle state of a resolution request (spec
// §4.4 "State machine (request)").
type RequestState int

const (
	RequestPending RequestState = iota
	RequestProcessing
	RequestCompleted
	RequestFailed
	RequestCancelled
)

func (s RequestState) String() string {
	switch s {
	case RequestPending:
		return "Pending"
	case RequestProcessing:
		return "Processing"
	case RequestCompleted:
		return "Completed"
	case RequestFailed:
		return "Failed"
	case RequestCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

var requestTransitions = map[RequestState]map[RequestState]bool{
	RequestPending:    {RequestProcessing: true},
	RequestProcessing: {RequestCompleted: true, RequestFailed: true, RequestCancelled: true},
}

// Request tracks one resolution's status and retry count. The same
// request_id is reused across idempotent retries (spec §4.4
// "Concurrency").
type Request struct {
	ID         string
	State      RequestState
	RetryCount int
	MaxRetries int
}

// NewRequest constructs a Pending request.
func NewRequest(id string, maxRetries int) *Request {
	return &Request{ID: id, State: RequestPending, MaxRetries: maxRetries}
}

func (r *Request) transition(to RequestState) error {
	if !requestTransitions[r.State][to] {
		return fmt.Errorf("storageproof: invalid request transition %s -> %s", r.State, to)
	}
	r.State = to
	return nil
}

// Start moves Pending -> Processing.
func (r *Request) Start() error { return r.transition(RequestProcessing) }

// Complete moves Processing -> Completed.
func (r *Request) Complete() error { return r.transition(RequestCompleted) }

// Fail moves Processing -> Failed.
func (r *Request) Fail() error { return r.transition(RequestFailed) }

// Cancel moves Processing -> Cancelled.
func (r *Request) Cancel() error { return r.transition(RequestCancelled) }

// RetryTransient re-opens a new Processing cycle for a transient failure,
// provided the retry budget and retry policy allow it (spec §4.4 "Retry
// creates a new Processing cycle only if retry_count < max_retries and
// the failure kind is transient").
func (r *Request) RetryTransient(policy RetryPolicy, transient bool) error {
	if !policy.EnableRetry || !transient || r.RetryCount >= r.MaxRetries {
		return fmt.Errorf("storageproof: retry not permitted (enabled=%v transient=%v count=%d max=%d)",
			policy.EnableRetry, transient, r.RetryCount, r.MaxRetries)
	}
	if r.State != RequestFailed {
		return fmt.Errorf("storageproof: can only retry a Failed request, got %s", r.State)
	}
	r.RetryCount++
	r.State = RequestProcessing
	return nil
}

// RetryPolicy configures whether and how many times a transient failure
// may be retried (spec §4.4 "Retry policy").
type RetryPolicy struct {
	EnableRetry bool
	MaxRetries  int
}
