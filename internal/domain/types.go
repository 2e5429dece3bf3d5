package domain

import "time"

type SessionID string

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type ModelType string

const (
	ModelLocal ModelType = "local"
	ModelCloud ModelType = "cloud"
)

// SentinelSessionID is the inbound session_id value meaning
// "no session yet, create one".
const SentinelSessionID SessionID = "1"

// DefaultSessionName is used when a session is created without a name.
const DefaultSessionName = "How can I help you?"

type Timestamp = time.Time
