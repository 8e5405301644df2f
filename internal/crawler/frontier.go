package crawler

import "sync"

// Entry is a queued page URL with its hop distance from the seed
type Entry struct {
	URL   string
	Depth int
}

// FrontierState describes where the crawl loop is
type FrontierState int

const (
	// FrontierEmpty means nothing has been queued yet
	FrontierEmpty FrontierState = iota
	// FrontierActive means entries are waiting in the queue
	FrontierActive
	// FrontierDraining means the queue is empty but an entry is in flight
	FrontierDraining
	// FrontierDone means the queue is empty and nothing is in flight
	FrontierDone
)

func (s FrontierState) String() string {
	switch s {
	case FrontierEmpty:
		return "empty"
	case FrontierActive:
		return "active"
	case FrontierDraining:
		return "draining"
	default:
		return "done"
	}
}

// Frontier is the FIFO page queue together with the visited set shared by
// pages and assets. Visit is the only way a URL enters the visited set, so
// each canonical URL is claimed exactly once.
type Frontier struct {
	mu       sync.Mutex
	queue    []Entry
	visited  map[string]struct{}
	inFlight int
	started  bool
}

// NewFrontier creates an empty frontier
func NewFrontier() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Push appends an entry to the queue
func (f *Frontier) Push(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, e)
	f.started = true
}

// Pop removes the oldest entry. Every successful Pop must be matched by Done.
func (f *Frontier) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return Entry{}, false
	}
	e := f.queue[0]
	f.queue[0] = Entry{}
	f.queue = f.queue[1:]
	f.inFlight++
	return e, true
}

// Done marks a popped entry as finished
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		f.inFlight--
	}
}

// Visit claims canonicalURL. It returns false if the URL was already claimed.
func (f *Frontier) Visit(canonicalURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[canonicalURL]; ok {
		return false
	}
	f.visited[canonicalURL] = struct{}{}
	return true
}

// Visited reports whether canonicalURL has been claimed
func (f *Frontier) Visited(canonicalURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[canonicalURL]
	return ok
}

// Counts returns the size of the visited set and the queue length
func (f *Frontier) Counts() (visited, queued int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited), len(f.queue)
}

// State reports the frontier lifecycle state
func (f *Frontier) State() FrontierState {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case !f.started:
		return FrontierEmpty
	case len(f.queue) > 0:
		return FrontierActive
	case f.inFlight > 0:
		return FrontierDraining
	default:
		return FrontierDone
	}
}
