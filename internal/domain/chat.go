package domain

import (
	"fmt"
	"time"
)

// SenderType identifies which side of a session wrote a message.
type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderTalent SenderType = "talent"

	// SenderMitra is a mitra writing as the booker of another talent.
	SenderMitra SenderType = "mitra"
)

type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// Party maps a sender type back to the position that wrote it.
func (t SenderType) Party() ChatParty {
	switch t {
	case SenderTalent:
		return PartyTalent
	case SenderMitra:
		return PartyMitraAsBooker
	default:
		return PartyUser
	}
}

// ChatParty is a reader/writer position inside a session.
type ChatParty string

const (
	PartyUser          ChatParty = "user"
	PartyTalent        ChatParty = "talent"
	PartyMitraAsBooker ChatParty = "mitra_as_booker"
)

// SenderType returns the message sender type written by this party.
func (p ChatParty) SenderType() SenderType {
	switch p {
	case PartyTalent:
		return SenderTalent
	case PartyMitraAsBooker:
		return SenderMitra
	default:
		return SenderUser
	}
}

// ChatSessionID derives the session identifier from its booking.
func ChatSessionID(bookingID int64) string {
	return fmt.Sprintf("chat_%d", bookingID)
}

// ChatSession is the conversation attached to one approved booking.
type ChatSession struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	BookingID  int64      `json:"booking_id" gorm:"not null;uniqueIndex"`
	TalentID   int64      `json:"talent_id" gorm:"not null;index"`
	BookerID   int64      `json:"booker_id" gorm:"not null;index:idx_chat_booker"`
	BookerType BookerType `json:"booker_type" gorm:"type:varchar(16);not null;index:idx_chat_booker"`

	// Copied from the booking when the session is created and not kept in sync afterwards.
	BookerName   string `json:"booker_name"`
	BookerAvatar string `json:"booker_avatar,omitempty"`
	TalentName   string `json:"talent_name"`
	TalentPhoto  string `json:"talent_photo,omitempty"`

	UnreadCountForUser          int `json:"unread_count_for_user"`
	UnreadCountForMitra         int `json:"unread_count_for_mitra"`
	UnreadCountForMitraAsBooker int `json:"unread_count_for_mitra_as_booker"`

	IsUserTyping          bool `json:"is_user_typing"`
	IsTalentTyping        bool `json:"is_talent_typing"`
	IsMitraAsBookerTyping bool `json:"is_mitra_as_booker_typing"`

	LastMessageAt time.Time `json:"last_message_at" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Messages []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID;references:ID"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// UnreadCount is the aggregate of the per-party counters; it is not stored.
func (s *ChatSession) UnreadCount() int {
	return s.UnreadCountForUser + s.UnreadCountForMitra + s.UnreadCountForMitraAsBooker
}

// BookerParty is the party that booked the session's talent.
func (s *ChatSession) BookerParty() ChatParty {
	if s.BookerType == BookerMitra {
		return PartyMitraAsBooker
	}
	return PartyUser
}

// UnreadFor returns the counter relevant to party.
func (s *ChatSession) UnreadFor(party ChatParty) int {
	switch party {
	case PartyTalent:
		return s.UnreadCountForMitra
	case PartyMitraAsBooker:
		return s.UnreadCountForMitraAsBooker
	default:
		return s.UnreadCountForUser
	}
}

// Counterpart is the other party of a session for party.
func (s *ChatSession) Counterpart(party ChatParty) ChatParty {
	if party == PartyTalent {
		return s.BookerParty()
	}
	return PartyTalent
}

// RecountUnread recomputes the per-party counters from the full history.
func (s *ChatSession) RecountUnread(msgs []ChatMessage) {
	s.UnreadCountForUser = 0
	s.UnreadCountForMitra = 0
	s.UnreadCountForMitraAsBooker = 0
	for i := range msgs {
		m := &msgs[i]
		reader := s.Counterpart(m.SenderType.Party())
		if m.ReadBy(reader) {
			continue
		}
		switch reader {
		case PartyTalent:
			s.UnreadCountForMitra++
		case PartyMitraAsBooker:
			s.UnreadCountForMitraAsBooker++
		default:
			s.UnreadCountForUser++
		}
	}
}

// SetTyping sets the typing flag of party.
func (s *ChatSession) SetTyping(party ChatParty, typing bool) {
	switch party {
	case PartyTalent:
		s.IsTalentTyping = typing
	case PartyMitraAsBooker:
		s.IsMitraAsBookerTyping = typing
	default:
		s.IsUserTyping = typing
	}
}

// ChatMessage is one entry of a session's append-only history.
type ChatMessage struct {
	ID         int64         `json:"id" gorm:"primaryKey"`
	SessionID  string        `json:"session_id" gorm:"type:varchar(64);not null;index"`
	SenderID   int64         `json:"sender_id"`
	SenderType SenderType    `json:"sender_type" gorm:"type:varchar(16);not null"`
	Message    string        `json:"message" gorm:"type:text;not null"`
	Timestamp  time.Time     `json:"timestamp"`
	Status     MessageStatus `json:"status" gorm:"type:varchar(16);not null;default:'sent'"`

	ReadByUser          bool `json:"read_by_user"`
	ReadByTalent        bool `json:"read_by_talent"`
	ReadByMitraAsBooker bool `json:"read_by_mitra_as_booker"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// ReadBy reports whether party has read the message.
func (m *ChatMessage) ReadBy(party ChatParty) bool {
	switch party {
	case PartyTalent:
		return m.ReadByTalent
	case PartyMitraAsBooker:
		return m.ReadByMitraAsBooker
	default:
		return m.ReadByUser
	}
}

// MarkReadBy sets the read flag of party and promotes the status to read.
func (m *ChatMessage) MarkReadBy(party ChatParty) {
	switch party {
	case PartyTalent:
		m.ReadByTalent = true
	case PartyMitraAsBooker:
		m.ReadByMitraAsBooker = true
	default:
		m.ReadByUser = true
	}
	m.Status = MessageRead
}

// ChatMutation is a locked view of a session used for read-modify-write changes.
// Changes made through Touch and Append are persisted together with the session.
type ChatMutation struct {
	Session  *ChatSession
	Messages []ChatMessage

	appended []ChatMessage
	dirty    map[int]struct{}
}

func NewChatMutation(s *ChatSession, msgs []ChatMessage) *ChatMutation {
	return &ChatMutation{Session: s, Messages: msgs, dirty: map[int]struct{}{}}
}

// Touch marks Messages[i] as modified.
func (m *ChatMutation) Touch(i int) { m.dirty[i] = struct{}{} }

// Append queues a new message; it is visible in Messages immediately.
func (m *ChatMutation) Append(msg ChatMessage) {
	msg.SessionID = m.Session.ID
	m.Messages = append(m.Messages, msg)
	m.appended = append(m.appended, msg)
	m.Touch(len(m.Messages) - 1)
}

// Changed returns indexes of modified or appended messages in ascending order.
func (m *ChatMutation) Changed() []int {
	out := make([]int, 0, len(m.dirty))
	for i := range m.Messages {
		if _, ok := m.dirty[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

// Appended returns the messages added during this mutation, with ids once persisted.
func (m *ChatMutation) Appended() []ChatMessage {
	n := len(m.appended)
	return m.Messages[len(m.Messages)-n:]
}
