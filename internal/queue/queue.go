// Package queue tracks the files waiting to be analyzed in one session.
package queue

// JobState is the analysis state of a job.
type JobState int

const (
	Pending JobState = iota
	Analyzing
	Done
	Failed
)

func (s JobState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Analyzing:
		return "analyzing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Job is one file to analyze.
type Job struct {
	Path  string
	Title string
	State JobState
	Err   error
}

// Queue is an ordered list of jobs with a cursor on the current one.
// It is only mutated from Bubbletea's single-threaded Update loop.
type Queue struct {
	jobs    []Job
	current int
}

// New creates a Queue with one pending job per path.
func New(paths []string) *Queue {
	jobs := make([]Job, len(paths))
	for i, p := range paths {
		jobs[i] = Job{Path: p}
	}
	return &Queue{jobs: jobs}
}

// Current returns a pointer to the current job, or nil if empty.
func (q *Queue) Current() *Job {
	return q.Job(q.current)
}

// Job returns a pointer to the job at the given index, or nil if out of range.
func (q *Queue) Job(i int) *Job {
	if i < 0 || i >= len(q.jobs) {
		return nil
	}
	return &q.jobs[i]
}

// Next returns the job after the current one, or nil if at the end.
func (q *Queue) Next() *Job {
	return q.Job(q.current + 1)
}

// Advance moves the cursor forward by one. Returns false if already at end.
func (q *Queue) Advance() bool {
	if q.current+1 >= len(q.jobs) {
		return false
	}
	q.current++
	return true
}

// Previous moves the cursor back by one. Returns false if already at start.
func (q *Queue) Previous() bool {
	if q.current <= 0 {
		return false
	}
	q.current--
	return true
}

// Len returns the total number of jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// CurrentIndex returns the zero-based index of the current job.
func (q *Queue) CurrentIndex() int {
	return q.current
}

// SetState sets the state of the job at the given index. err is kept for
// Failed jobs and cleared otherwise.
func (q *Queue) SetState(i int, state JobState, err error) {
	if j := q.Job(i); j != nil {
		j.State = state
		j.Err = nil
		if state == Failed {
			j.Err = err
		}
	}
}

// SetTitle sets the display title of the job at the given index.
func (q *Queue) SetTitle(i int, title string) {
	if j := q.Job(i); j != nil {
		j.Title = title
	}
}

// Count returns how many jobs are in the given state.
func (q *Queue) Count(state JobState) int {
	n := 0
	for _, j := range q.jobs {
		if j.State == state {
			n++
		}
	}
	return n
}
