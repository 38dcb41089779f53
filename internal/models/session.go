package models

import (
	"time"

	"github.com/google/uuid"
)

// Step is the stage of a reservation dialogue, naming the field the next
// message fills.
type Step string

const (
	StepAskName     Step = "ask_name"
	StepAskPhone    Step = "ask_phone"
	StepAskPeople   Step = "ask_people"
	StepAskDateTime Step = "ask_datetime"
)

// reservationSteps is the only order a dialogue may move through.
var reservationSteps = []Step{StepAskName, StepAskPhone, StepAskPeople, StepAskDateTime}

// Valid reports whether s is one of the four dialogue steps.
func (s Step) Valid() bool {
	for _, step := range reservationSteps {
		if s == step {
			return true
		}
	}
	return false
}

// Next returns the step after s. The last step and unknown steps have no successor.
func (s Step) Next() (Step, bool) {
	for i, step := range reservationSteps {
		if s == step && i+1 < len(reservationSteps) {
			return reservationSteps[i+1], true
		}
	}
	return "", false
}

// ReservationFields holds what the user typed at each step. Empty means not
// filled yet.
type ReservationFields struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	People   string `json:"people,omitempty"`
	DateTime string `json:"datetime,omitempty"`
}

// Set stores value in the field that step collects.
func (f *ReservationFields) Set(step Step, value string) {
	switch step {
	case StepAskName:
		f.Name = value
	case StepAskPhone:
		f.Phone = value
	case StepAskPeople:
		f.People = value
	case StepAskDateTime:
		f.DateTime = value
	}
}

// Complete reports whether every field has been captured.
func (f ReservationFields) Complete() bool {
	return f.Name != "" && f.Phone != "" && f.People != "" && f.DateTime != ""
}

// Session is one user's in-flight reservation dialogue. It lives only in memory.
type Session struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	ReplyTo    string            `json:"reply_to,omitempty"`
	Step       Step              `json:"step"`
	Fields     ReservationFields `json:"fields"`
	CreatedAt  time.Time         `json:"created_at"`
	LastActive time.Time         `json:"last_active"`
}

// NewSession starts a dialogue at the name step with nothing filled.
func NewSession(userID, replyTo string, now time.Time) Session {
	return Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ReplyTo:    replyTo,
		Step:       StepAskName,
		CreatedAt:  now,
		LastActive: now,
	}
}

// IdleFor returns how long the session has gone without a turn.
func (s Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActive)
}
