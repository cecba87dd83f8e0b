package session

const (
	// DefaultHistoryLimit caps the turns kept per user.
	DefaultHistoryLimit = 30
	// evictBatch is one user/model turn pair.
	evictBatch = 2
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role
	Text string
}

// History is an ordered, bounded window of turns. Once its length exceeds
// the limit the oldest pair is evicted, so appending and trimming happen as
// one step. It is not safe for concurrent use; Session guards it.
type History struct {
	limit int
	turns []Turn
}

func NewHistory(limit int) *History {
	if limit < evictBatch {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, turns: make([]Turn, 0, limit+evictBatch)}
}

// Append adds turns in order, trimming after each one.
func (h *History) Append(turns ...Turn) {
	for _, t := range turns {
		h.turns = append(h.turns, t)
		for len(h.turns) > h.limit {
			h.Trim()
		}
	}
}

// Trim evicts the oldest pair of turns if the history is over its limit and
// returns the number of turns evicted.
func (h *History) Trim() int {
	if len(h.turns) <= h.limit {
		return 0
	}
	n := copy(h.turns, h.turns[evictBatch:])
	clear(h.turns[n:])
	h.turns = h.turns[:n]
	return evictBatch
}

// Turns returns a copy of the history, oldest first.
func (h *History) Turns() []Turn {
	return append([]Turn(nil), h.turns...)
}

func (h *History) Len() int   { return len(h.turns) }
func (h *History) Limit() int { return h.limit }
