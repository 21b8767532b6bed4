package store

import (
	"context"
	"log"
	"sync"
	"time"

	"helpdesk-system/models"
	"helpdesk-system/monitoring"
)

// State is one immutable snapshot of everything the views read.
type State struct {
	Tickets        []models.Ticket
	SelectedTicket *models.Ticket
	Loading        bool
	Error          string
	ActiveFolder   string
	SearchTerm     string
}

// NewState is the boot state: loading with an empty collection and the
// Inbox folder active.
func NewState() State {
	return State{
		Tickets:      []models.Ticket{},
		Loading:      true,
		ActiveFolder: FolderInbox,
	}
}

// Action is one of the fixed intents the views may dispatch.
type Action interface {
	actionName() string
}

type FetchStart struct{}

type FetchSuccess struct {
	Tickets []models.Ticket
}

type FetchError struct {
	Message string
}

type SetFolder struct {
	Folder string
}

type Search struct {
	Term string
}

type Select struct {
	Ticket *models.Ticket
}

type Update struct {
	Ticket models.Ticket
}

type AddMessage struct {
	Message models.TicketMessage
}

type Lock struct {
	TicketID int64
	Lock     models.TicketLock
}

type Unlock struct {
	TicketID int64
}

func (FetchStart) actionName() string   { return "fetch_start" }
func (FetchSuccess) actionName() string { return "fetch_success" }
func (FetchError) actionName() string   { return "fetch_error" }
func (SetFolder) actionName() string    { return "set_folder" }
func (Search) actionName() string       { return "search" }
func (Select) actionName() string       { return "select" }
func (Update) actionName() string       { return "update" }
func (AddMessage) actionName() string   { return "add_message" }
func (Lock) actionName() string         { return "lock" }
func (Unlock) actionName() string       { return "unlock" }

// Reduce maps (state, action) to the next state plus the tickets whose
// changes must be persisted. It is pure: the write itself belongs to
// the effect runner, never to the transition.
func Reduce(state State, action Action, now time.Time) (State, []models.Ticket) {
	switch a := action.(type) {
	case FetchStart:
		state.Loading = true
		state.Error = ""
		return state, nil

	case FetchSuccess:
		state.Loading = false
		state.Tickets = a.Tickets
		if state.Tickets == nil {
			state.Tickets = []models.Ticket{}
		}
		return state, nil

	case FetchError:
		state.Loading = false
		state.Error = a.Message
		return state, nil

	case SetFolder:
		state.ActiveFolder = a.Folder
		state.SelectedTicket = nil
		return state, nil

	case Search:
		state.SearchTerm = a.Term
		return state, nil

	case Select:
		if a.Ticket == nil || a.Ticket.IsRead {
			state.SelectedTicket = a.Ticket
			return state, nil
		}
		// Optimistic read flip on both the selection and the
		// collection entry.
		read := *a.Ticket
		read.IsRead = true
		state.SelectedTicket = &read
		state.Tickets = replaceTicket(state.Tickets, read)
		return state, []models.Ticket{read}

	case Update:
		state.Tickets = replaceTicket(state.Tickets, a.Ticket)
		if state.SelectedTicket != nil && state.SelectedTicket.ID == a.Ticket.ID {
			updated := a.Ticket
			state.SelectedTicket = &updated
		}
		return state, []models.Ticket{a.Ticket}

	case AddMessage:
		idx := indexOf(state.Tickets, a.Message.TicketID)
		if idx < 0 {
			return state, nil
		}
		updated := state.Tickets[idx]
		messages := make([]models.TicketMessage, len(updated.Messages), len(updated.Messages)+1)
		copy(messages, updated.Messages)
		updated.Messages = append(messages, a.Message)
		updated.UpdatedAt = now
		updated.IsRead = false

		state.Tickets = replaceTicket(state.Tickets, updated)
		if state.SelectedTicket != nil && state.SelectedTicket.ID == updated.ID {
			selected := updated
			state.SelectedTicket = &selected
		}
		return state, []models.Ticket{updated}

	case Lock:
		lock := a.Lock
		return applyLock(state, a.TicketID, &lock), nil

	case Unlock:
		return applyLock(state, a.TicketID, nil), nil

	default:
		return state, nil
	}
}

func applyLock(state State, ticketID int64, lock *models.TicketLock) State {
	if idx := indexOf(state.Tickets, ticketID); idx >= 0 {
		updated := state.Tickets[idx]
		updated.Lock = lock
		state.Tickets = replaceTicket(state.Tickets, updated)
	}
	if state.SelectedTicket != nil && state.SelectedTicket.ID == ticketID {
		selected := *state.SelectedTicket
		selected.Lock = lock
		state.SelectedTicket = &selected
	}
	return state
}

func indexOf(tickets []models.Ticket, id int64) int {
	for i := range tickets {
		if tickets[i].ID == id {
			return i
		}
	}
	return -1
}

func replaceTicket(tickets []models.Ticket, ticket models.Ticket) []models.Ticket {
	next := make([]models.Ticket, len(tickets))
	copy(next, tickets)
	for i := range next {
		if next[i].ID == ticket.ID {
			next[i] = ticket
		}
	}
	return next
}

// Persister owns the durable write for a mutated ticket.
type Persister interface {
	UpdateTicket(ctx context.Context, ticket models.Ticket) (models.Ticket, error)
}

// Store serializes intents through the reducer and forwards persistence
// effects to a background runner. Writes are optimistic: a failed write
// is logged and counted but never rolled back.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister Persister

	queue  chan models.Ticket
	wg     sync.WaitGroup
	closed bool
}

const persistQueueSize = 64

func New(persister Persister) *Store {
	s := &Store{
		state:     NewState(),
		persister: persister,
		queue:     make(chan models.Ticket, persistQueueSize),
	}

	s.wg.Add(1)
	go s.runEffects()

	return s
}

// Dispatch applies one intent. Persistence effects are queued for the
// runner; a full queue drops the write rather than blocking the caller.
// The queue send happens under the mutex so Close cannot close the
// channel between the closed check and the send.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	next, effects := Reduce(s.state, action, time.Now())
	s.state = next
	if !s.closed {
		for _, ticket := range effects {
			select {
			case s.queue <- ticket:
			default:
				log.Printf("store: persist queue full, dropping write for ticket %d", ticket.ID)
				monitoring.TrackPersistWrite("dropped")
			}
		}
	}
	s.mu.Unlock()

	monitoring.TrackStoreIntent(action.actionName())
	return next
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Visible returns the list for the active folder and search term as
// seen by the given viewer.
func (s *Store) Visible(userID int64) []models.Ticket {
	state := s.State()
	return VisibleTickets(state.Tickets, state.ActiveFolder, state.SearchTerm, userID)
}

// Close stops the effect runner after draining queued writes. The
// channel close happens under the same mutex that guards Dispatch's
// send, so a concurrent dispatch never hits a closed channel.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Store) runEffects() {
	defer s.wg.Done()

	for ticket := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := s.persister.UpdateTicket(ctx, ticket)
		cancel()
		if err != nil {
			log.Printf("store: persist ticket %d: %v", ticket.ID, err)
			monitoring.TrackPersistWrite("error")
			continue
		}
		monitoring.TrackPersistWrite("ok")
	}
}
