package memory

import (
	"context"
	"sync"
	"time"

	"bookingrule/internal/app/bookingwindow"
	domainavailability "bookingrule/internal/domain/availability"
)

// AvailabilityRepository keeps calendars in memory. Callers get copies, so a
// change is only visible after Save.
type AvailabilityRepository struct {
	mu        sync.RWMutex
	calendars map[string]*domainavailability.Calendar
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{calendars: make(map[string]*domainavailability.Calendar)}
}

// Calendar returns the stored calendar or an empty one.
func (r *AvailabilityRepository) Calendar(ctx context.Context, id string) (*domainavailability.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cal, ok := r.calendars[id]
	if !ok {
		return domainavailability.NewCalendar(id), nil
	}
	return cloneCalendar(cal), nil
}

func (r *AvailabilityRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.calendars[calendar.InventoryID]; ok && current.Version != calendar.Version {
		return domainavailability.ErrConcurrentUpdate
	}
	stored := cloneCalendar(calendar)
	stored.Version++
	calendar.Version = stored.Version
	r.calendars[calendar.InventoryID] = stored
	return nil
}

func cloneCalendar(cal *domainavailability.Calendar) *domainavailability.Calendar {
	out := domainavailability.NewCalendar(cal.InventoryID)
	out.Version = cal.Version
	out.Blocks = append(out.Blocks, cal.Blocks...)
	return out
}

// SessionRepository keeps widget sessions in memory. Sessions idle longer
// than ttl are treated as missing; ttl <= 0 keeps them forever.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]bookingwindow.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{sessions: make(map[string]bookingwindow.Session), ttl: ttl, now: time.Now}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (bookingwindow.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || r.expired(s) {
		return bookingwindow.Session{}, bookingwindow.ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRepository) Save(ctx context.Context, session bookingwindow.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[session.ID]; ok && !r.expired(current) && current.Version != session.Version {
		return bookingwindow.ErrSessionConflict
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = r.now().UTC()
	}
	session.Version++
	r.sessions[session.ID] = session
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *SessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *SessionRepository) expired(s bookingwindow.Session) bool {
	return r.ttl > 0 && r.now().Sub(s.UpdatedAt) > r.ttl
}

var (
	_ domainavailability.Repository   = (*AvailabilityRepository)(nil)
	_ bookingwindow.SessionRepository = (*SessionRepository)(nil)
)
