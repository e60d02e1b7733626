package action

import "encoding/json"

// Queue is the ordered buffer of actions produced for one request.
// Appends deduplicate createSheet by name; everything else is append-only.
// A Queue is request-scoped and not safe for concurrent use.
type Queue struct {
	actions []Action
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// EnqueueResult reports the outcome of one enqueue.
type EnqueueResult struct {
	Status string `json:"status,omitempty"` // "already_queued" when deduplicated
	Name   string `json:"name,omitempty"`

	// Wire form of the queued action; empty when deduplicated.
	Action json.RawMessage `json:"-"`
}

// Enqueue appends an action. A createSheet whose name is already queued is
// dropped and acknowledged with status "already_queued" instead, so retries
// and overlapping templates cannot create the same sheet twice.
func (q *Queue) Enqueue(a Action) (*EnqueueResult, error) {
	if cs, ok := a.(*CreateSheet); ok {
		for _, existing := range q.actions {
			if prev, ok := existing.(*CreateSheet); ok && prev.Name == cs.Name {
				return &EnqueueResult{Status: "already_queued", Name: cs.Name}, nil
			}
		}
	}

	raw, err := Marshal(a)
	if err != nil {
		return nil, err
	}

	q.actions = append(q.actions, a)
	return &EnqueueResult{Action: raw}, nil
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	return len(q.actions)
}

// Actions returns the underlying action slice. The verifier rewrites
// action fields through this slice; callers must not reorder or truncate it.
func (q *Queue) Actions() []Action {
	return q.actions
}

// Flush returns all queued actions and empties the queue.
func (q *Queue) Flush() []Action {
	out := q.actions
	q.actions = nil
	return out
}

// Clear drops all queued actions without returning them.
func (q *Queue) Clear() {
	q.actions = nil
}

// MarshalJSON renders the queue as a JSON array of wire objects.
func (q *Queue) MarshalJSON() ([]byte, error) {
	return MarshalAll(q.actions)
}
