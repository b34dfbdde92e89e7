// Package mail renders account emails and hands them to a transport.
package mail

import (
	"context"
	"errors"
	"strings"
)

// Message is a ready-to-send email with plain text and HTML bodies.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("mail: empty recipient")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail: empty subject")
	}
	return nil
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher hands a message off without blocking the caller on delivery.
// Failures are logged by the dispatcher and never returned.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
}
