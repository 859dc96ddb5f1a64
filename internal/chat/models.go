package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Category string

const (
	CategoryCareerPlanning   Category = "career-planning"
	CategoryJobSearch        Category = "job-search"
	CategorySkillDevelopment Category = "skill-development"
	CategoryInterviewPrep    Category = "interview-prep"
	CategoryGeneral          Category = "general"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCareerPlanning, CategoryJobSearch, CategorySkillDevelopment, CategoryInterviewPrep, CategoryGeneral:
		return true
	}
	return false
}

// DefaultTitle is the title of a session nobody has written in yet.
const DefaultTitle = "New Chat"

type Session struct {
	ID           string    `gorm:"primaryKey;type:varchar(26)" json:"session_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	LastMessage  string    `gorm:"type:text" json:"last_message"`
	Timestamp    time.Time `gorm:"index;not null" json:"timestamp"`
	MessageCount int       `gorm:"not null;default:0" json:"message_count"`
	Category     Category  `gorm:"type:varchar(32);not null" json:"category"`
}

func (Session) TableName() string { return "chat_sessions" }

type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID string    `gorm:"type:varchar(26);not null;index:idx_chat_msg_session_seq,priority:1" json:"session_id"`
	Seq       int       `gorm:"not null;index:idx_chat_msg_session_seq,priority:2" json:"-"`
	Role      Role      `gorm:"type:varchar(16);index;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func (Message) TableName() string { return "chat_messages" }
