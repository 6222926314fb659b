package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"rentmate/internal/domain"
	"rentmate/internal/events"
	"rentmate/internal/repository"
)

const MaxMessageLength = 2000

type Service struct {
	sessions SessionRepository
	bookings BookingRepository
	mitras   MitraRepository
	events   events.Publisher
	now      func() time.Time
	loggerf  func(format string, args ...interface{})
}

func NewService(sessions SessionRepository, bookings BookingRepository, mitras MitraRepository, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		sessions: sessions,
		bookings: bookings,
		mitras:   mitras,
		events:   pub,
		now:      time.Now,
		loggerf:  func(string, ...interface{}) {},
	}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

// GetOrCreateChatSession returns the session of an approved booking, creating it
// with a welcome message from the talent on first use.
func (s *Service) GetOrCreateChatSession(ctx context.Context, b *domain.Booking) (*domain.ChatSession, error) {
	if b.ApprovalStatus != domain.ApprovalApproved {
		return nil, ErrBookingNotApproved
	}

	existing, err := s.sessions.GetByBookingID(ctx, b.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	session := &domain.ChatSession{
		ID:            domain.ChatSessionID(b.ID),
		BookingID:     b.ID,
		TalentID:      b.TalentID,
		BookerID:      b.BookerID,
		BookerType:    b.BookerType,
		BookerName:    b.BookerName,
		BookerAvatar:  b.BookerAvatar,
		TalentName:    b.TalentName,
		TalentPhoto:   b.TalentPhoto,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	welcome := domain.ChatMessage{
		SessionID:    session.ID,
		SenderID:     b.TalentID,
		SenderType:   domain.SenderTalent,
		Message:      welcomeText(b),
		Timestamp:    now,
		Status:       domain.MessageSent,
		ReadByTalent: true,
	}
	session.RecountUnread([]domain.ChatMessage{welcome})

	stored, created, err := s.sessions.Create(ctx, session, welcome)
	if err != nil {
		return nil, err
	}
	if created {
		s.events.Publish(ctx, sessionEvent(events.ChatSessionCreated, stored, nil))
	}
	return stored, nil
}

func welcomeText(b *domain.Booking) string {
	name := strings.TrimSpace(b.BookerName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s! Thank you for booking me. See you on %s at %s. Feel free to ask anything here.", name, b.Date, b.Time)
}

// GetChatSessionByBookingID opens the chat of a booking for one of its participants.
func (s *Service) GetChatSessionByBookingID(ctx context.Context, actor domain.Actor, bookingID int64) (*SessionView, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	party, err := s.partyFor(ctx, actor, b.TalentID, b.BookerID, b.BookerType)
	if err != nil {
		return nil, err
	}

	session, err := s.GetOrCreateChatSession(ctx, b)
	if err != nil {
		return nil, err
	}
	v := newSessionView(*session, party)
	return &v, nil
}

// ListSessionsForBooker materializes sessions for the booker's approved bookings
// and lists them, most recent activity first.
func (s *Service) ListSessionsForBooker(ctx context.Context, booker domain.Booker) ([]SessionView, error) {
	approved, err := s.bookings.List(ctx, repository.BookingFilter{
		BookerID:       booker.ID,
		BookerType:     booker.Type,
		ApprovalStatus: []domain.ApprovalStatus{domain.ApprovalApproved},
	})
	if err != nil {
		return nil, err
	}
	if err := s.materialize(ctx, approved); err != nil {
		return nil, err
	}

	list, err := s.sessions.ListByBooker(ctx, booker.ID, booker.Type)
	if err != nil {
		return nil, err
	}
	party := domain.PartyUser
	if booker.Type == domain.BookerMitra {
		party = domain.PartyMitraAsBooker
	}
	return views(list, party), nil
}

// ListSessionsForTalent lists the sessions of the talent owned by mitraID.
func (s *Service) ListSessionsForTalent(ctx context.Context, mitraID int64) ([]SessionView, error) {
	m, err := s.mitras.GetByID(ctx, mitraID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	approved, err := s.bookings.List(ctx, repository.BookingFilter{
		TalentID:       m.TalentID,
		ApprovalStatus: []domain.ApprovalStatus{domain.ApprovalApproved},
	})
	if err != nil {
		return nil, err
	}
	if err := s.materialize(ctx, approved); err != nil {
		return nil, err
	}

	list, err := s.sessions.ListByTalent(ctx, m.TalentID)
	if err != nil {
		return nil, err
	}
	return views(list, domain.PartyTalent), nil
}

// ListSessions returns every session visible to actor: as booker and, for mitras, as talent.
func (s *Service) ListSessions(ctx context.Context, actor domain.Actor) ([]SessionView, error) {
	booker, ok := actor.Booker()
	if !ok {
		return nil, ErrForbidden
	}
	out, err := s.ListSessionsForBooker(ctx, booker)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleMitra {
		asTalent, err := s.ListSessionsForTalent(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, asTalent...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	}
	return out, nil
}

func (s *Service) materialize(ctx context.Context, approved []domain.Booking) error {
	for i := range approved {
		if _, err := s.GetOrCreateChatSession(ctx, &approved[i]); err != nil {
			return err
		}
	}
	return nil
}

func views(list []domain.ChatSession, party domain.ChatParty) []SessionView {
	out := make([]SessionView, 0, len(list))
	for _, cs := range list {
		out = append(out, newSessionView(cs, party))
	}
	return out
}

// Participant resolves the position actor holds in the session.
func (s *Service) Participant(ctx context.Context, actor domain.Actor, sessionID string) (*domain.ChatSession, domain.ChatParty, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	party, err := s.partyFor(ctx, actor, session.TalentID, session.BookerID, session.BookerType)
	if err != nil {
		return nil, "", err
	}
	return session, party, nil
}

func (s *Service) partyFor(ctx context.Context, actor domain.Actor, talentID, bookerID int64, bookerType domain.BookerType) (domain.ChatParty, error) {
	switch actor.Role {
	case domain.RoleUser:
		if bookerType == domain.BookerUser && bookerID == actor.ID {
			return domain.PartyUser, nil
		}
	case domain.RoleMitra:
		if bookerType == domain.BookerMitra && bookerID == actor.ID {
			return domain.PartyMitraAsBooker, nil
		}
		m, err := s.mitras.GetByID(ctx, actor.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		if err == nil && m.TalentID == talentID {
			return domain.PartyTalent, nil
		}
	}
	return "", ErrForbidden
}

func (s *Service) SendUserMessage(ctx context.Context, sessionID string, userID int64, text string) (*domain.ChatMessage, error) {
	return s.SendMessage(ctx, sessionID, domain.PartyUser, userID, text)
}

// SendMitraMessage writes on the talent side of the session.
func (s *Service) SendMitraMessage(ctx context.Context, sessionID string, talentID int64, text string) (*domain.ChatMessage, error) {
	return s.SendMessage(ctx, sessionID, domain.PartyTalent, talentID, text)
}

func (s *Service) SendMitraAsBookerMessage(ctx context.Context, sessionID string, mitraID int64, text string) (*domain.ChatMessage, error) {
	return s.SendMessage(ctx, sessionID, domain.PartyMitraAsBooker, mitraID, text)
}

// SendMessage appends a message from party. Sending also marks the single most
// recent unread message from the other party as read and clears party's typing flag.
func (s *Service) SendMessage(ctx context.Context, sessionID string, party domain.ChatParty, senderID int64, text string) (*domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	now := s.now()
	mut, err := s.sessions.Update(ctx, sessionID, func(m *domain.ChatMutation) error {
		other := m.Session.Counterpart(party)
		for i := len(m.Messages) - 1; i >= 0; i-- {
			msg := &m.Messages[i]
			if msg.SenderType.Party() == other && !msg.ReadBy(party) {
				msg.MarkReadBy(party)
				m.Touch(i)
				break
			}
		}

		out := domain.ChatMessage{
			SenderID:   senderID,
			SenderType: party.SenderType(),
			Message:    text,
			Timestamp:  now,
			Status:     domain.MessageSent,
		}
		out.MarkReadBy(party)
		out.Status = domain.MessageSent
		m.Append(out)

		m.Session.SetTyping(party, false)
		m.Session.LastMessageAt = now
		return nil
	})
	if err != nil {
		return nil, s.mapSessionErr(err)
	}

	msg := mut.Appended()[0]
	s.events.Publish(ctx, sessionEvent(events.ChatMessage, mut.Session, msg))
	return &msg, nil
}

// MarkSessionRead marks every message from the other party as read by party.
func (s *Service) MarkSessionRead(ctx context.Context, sessionID string, party domain.ChatParty) (*domain.ChatSession, error) {
	marked := 0
	mut, err := s.sessions.Update(ctx, sessionID, func(m *domain.ChatMutation) error {
		other := m.Session.Counterpart(party)
		for i := range m.Messages {
			msg := &m.Messages[i]
			if msg.SenderType.Party() == other && !msg.ReadBy(party) {
				msg.MarkReadBy(party)
				m.Touch(i)
				marked++
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.mapSessionErr(err)
	}

	if marked > 0 {
		s.events.Publish(ctx, sessionEvent(events.ChatRead, mut.Session, ReadPayload{Party: party, Marked: marked}))
	}
	return mut.Session, nil
}

func (s *Service) SetTyping(ctx context.Context, sessionID string, party domain.ChatParty, typing bool) error {
	mut, err := s.sessions.Update(ctx, sessionID, func(m *domain.ChatMutation) error {
		m.Session.SetTyping(party, typing)
		return nil
	})
	if err != nil {
		return s.mapSessionErr(err)
	}
	s.events.Publish(ctx, sessionEvent(events.ChatTyping, mut.Session, TypingPayload{Party: party, Typing: typing}))
	return nil
}

// GetMessages returns the history and marks messages addressed to party as delivered.
func (s *Service) GetMessages(ctx context.Context, sessionID string, party domain.ChatParty) ([]domain.ChatMessage, error) {
	mut, err := s.sessions.Update(ctx, sessionID, func(m *domain.ChatMutation) error {
		other := m.Session.Counterpart(party)
		for i := range m.Messages {
			msg := &m.Messages[i]
			if msg.SenderType.Party() == other && msg.Status == domain.MessageSent {
				msg.Status = domain.MessageDelivered
				m.Touch(i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.mapSessionErr(err)
	}
	return mut.Messages, nil
}

func (s *Service) mapSessionErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func sessionEvent(kind events.Kind, cs *domain.ChatSession, payload interface{}) events.Event {
	return events.Event{
		Kind:       kind,
		BookingID:  cs.BookingID,
		SessionID:  cs.ID,
		TalentID:   cs.TalentID,
		BookerID:   cs.BookerID,
		BookerType: cs.BookerType,
		Payload:    payload,
	}
}

// SocketKeys lists the hub keys a live connection of actor listens on.
func (s *Service) SocketKeys(ctx context.Context, actor domain.Actor) ([]string, error) {
	booker, ok := actor.Booker()
	if !ok {
		return nil, ErrForbidden
	}
	keys := []string{BookerKey(booker.Type, booker.ID)}
	if actor.Role == domain.RoleMitra {
		m, err := s.mitras.GetByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrForbidden
			}
			return nil, err
		}
		keys = append(keys, TalentKey(m.TalentID))
	}
	return keys, nil
}

// Send writes text into the session as actor, resolving which side actor is on.
func (s *Service) Send(ctx context.Context, actor domain.Actor, sessionID, text string) (*domain.ChatMessage, error) {
	session, party, err := s.Participant(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	switch party {
	case domain.PartyTalent:
		return s.SendMitraMessage(ctx, sessionID, session.TalentID, text)
	case domain.PartyMitraAsBooker:
		return s.SendMitraAsBookerMessage(ctx, sessionID, actor.ID, text)
	default:
		return s.SendUserMessage(ctx, sessionID, actor.ID, text)
	}
}
