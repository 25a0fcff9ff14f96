// Package pending parks delete requests for recipients that are offline.
package pending

// Record is a delete request waiting for TargetUserID to connect.
type Record struct {
	TargetUserID    string
	MessageID       string
	RequesterUserID string
}

// Queue holds records per target user in arrival order.
// It is not safe for concurrent use; the relay loop owns it.
type Queue struct {
	byTarget map[string][]Record
	total    int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{byTarget: make(map[string][]Record)}
}

// Enqueue parks rec. A second request for the same target and message is collapsed.
func (q *Queue) Enqueue(rec Record) bool {
	for _, existing := range q.byTarget[rec.TargetUserID] {
		if existing.MessageID == rec.MessageID {
			return false
		}
	}
	q.byTarget[rec.TargetUserID] = append(q.byTarget[rec.TargetUserID], rec)
	q.total++
	return true
}

// Drain removes and returns every record for target.
func (q *Queue) Drain(target string) []Record {
	recs := q.byTarget[target]
	delete(q.byTarget, target)
	q.total -= len(recs)
	return recs
}

// Len returns the number of parked records across all targets.
func (q *Queue) Len() int {
	return q.total
}
