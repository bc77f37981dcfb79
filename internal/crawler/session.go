package crawler

import "github.com/nao1215/contactscan/internal/model"

// sessionState is the lifecycle of one crawl session.
type sessionState int

// A session ends interrupted when its context expired before the frontier
// was exhausted; the harvest is then partial.
const (
	stateTraversing sessionState = iota
	stateDone
	stateInterrupted
)

func (s sessionState) String() string {
	switch s {
	case stateTraversing:
		return "traversing"
	case stateDone:
		return "done"
	case stateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// frontierItem is a page waiting to be fetched.
type frontierItem struct {
	url   string
	depth int
}

// session is the traversal state for one root URL. It is owned by a single
// Run call and never shared.
type session struct {
	root     string
	maxPages int
	state    sessionState

	// frontier is a LIFO stack; popping the last item gives depth-first order.
	frontier []frontierItem
	visited  map[string]struct{}

	bundle       model.ContactBundle
	emails       []model.Email
	pagesVisited int
	failedPages  []string
}

func newSession(root string, maxPages int) *session {
	return &session{
		root:     root,
		maxPages: maxPages,
		state:    stateTraversing,
		frontier: []frontierItem{{url: root, depth: 0}},
		visited:  make(map[string]struct{}),
		bundle:   model.NewContactBundle(),
		emails:   []model.Email{},
	}
}

func (s *session) push(item frontierItem) {
	s.frontier = append(s.frontier, item)
}

func (s *session) pop() (frontierItem, bool) {
	if len(s.frontier) == 0 {
		return frontierItem{}, false
	}
	last := len(s.frontier) - 1
	item := s.frontier[last]
	s.frontier = s.frontier[:last]
	return item, true
}

func (s *session) isVisited(rawURL string) bool {
	_, ok := s.visited[normalizeURL(rawURL)]
	return ok
}

func (s *session) markVisited(rawURL string) {
	s.visited[normalizeURL(rawURL)] = struct{}{}
}
