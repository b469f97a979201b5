package service

import (
	"duelquiz/internal/model"
	"log"
	"strings"
	"unicode/utf8"
)

// SlotManager assigns the two participant slots of a session and tracks
// which connection is attached to each
type SlotManager struct {
	registry    *SessionRegistry
	broadcaster Broadcaster
}

// NewSlotManager creates a new slot manager
func NewSlotManager(registry *SessionRegistry) *SlotManager {
	return &SlotManager{
		registry: registry,
	}
}

// SetBroadcaster sets the broadcaster for roster updates
func (m *SlotManager) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

// ReserveSlot places a new participant in the first empty slot
func (m *SlotManager) ReserveSlot(sessionID, requestedName string) (model.Participant, error) {
	var reserved model.Participant
	err := m.registry.With(sessionID, func(s *model.Session) error {
		for _, id := range model.Slots {
			if s.Participants[id] != nil {
				continue
			}
			p := &model.Participant{
				SlotID:      id,
				DisplayName: displayName(requestedName, id),
			}
			s.Participants[id] = p
			reserved = *p
			m.broadcastRoster(s)
			return nil
		}
		return ErrSessionFull
	})
	return reserved, err
}

// AttachConnection binds connID to a slot. An empty slot gets a new
// participant; an occupied one is a reconnection and keeps its score.
func (m *SlotManager) AttachConnection(sessionID string, slot model.SlotID, connID, name string) (model.Participant, error) {
	var attached model.Participant
	if !slot.Valid() {
		return attached, ErrInvalidSlot
	}
	if _, ok := m.registry.Get(sessionID); !ok {
		return attached, ErrSessionNotFound
	}

	target := connBinding{SessionID: sessionID, Slot: slot}
	if prev, ok := m.registry.connection(connID); ok && prev != target {
		m.DetachConnection(connID)
	}

	err := m.registry.With(sessionID, func(s *model.Session) error {
		p := s.Participants[slot]
		if p == nil {
			p = &model.Participant{
				SlotID:      slot,
				DisplayName: displayName(name, slot),
			}
			s.Participants[slot] = p
		} else if n := trimName(name); n != "" {
			p.DisplayName = n
		}

		if p.ConnectionRef != "" && p.ConnectionRef != connID {
			m.registry.unbindConnection(p.ConnectionRef, target)
		}
		p.ConnectionRef = connID
		m.registry.bindConnection(connID, sessionID, slot)

		attached = *p
		m.broadcastRoster(s)
		return nil
	})
	if err != nil {
		return attached, err
	}

	log.Printf("Connection %s attached to %s in session %s", connID, slot, sessionID)
	return attached, nil
}

// DetachConnection marks the participant holding connID as offline. The
// participant and its score stay in the slot.
func (m *SlotManager) DetachConnection(connID string) bool {
	b, ok := m.registry.connection(connID)
	if !ok {
		return false
	}
	m.registry.unbindConnection(connID, b)

	detached := false
	_ = m.registry.With(b.SessionID, func(s *model.Session) error {
		p := s.Participants[b.Slot]
		if p == nil || p.ConnectionRef != connID {
			return nil
		}
		p.ConnectionRef = ""
		detached = true
		m.broadcastRoster(s)
		return nil
	})

	if detached {
		log.Printf("Connection %s detached from %s in session %s", connID, b.Slot, b.SessionID)
	}
	return detached
}

func (m *SlotManager) broadcastRoster(s *model.Session) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.BroadcastToRoom(s.ID, model.EventRosterState, s.Roster())
}

func displayName(name string, slot model.SlotID) string {
	if n := trimName(name); n != "" {
		return n
	}
	return slot.DefaultName()
}

// trimName strips surrounding space and caps the name at MaxNameLength characters
func trimName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= model.MaxNameLength {
		return name
	}
	return string([]rune(name)[:model.MaxNameLength])
}
