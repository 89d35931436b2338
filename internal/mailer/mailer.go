// Package mailer sends plain-text notifications.
package mailer

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender only logs. It stands in when no mail provider is configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.With("service", "LogSender")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("mail not delivered (no provider configured)", "to", msg.To, "subject", msg.Subject)
	return nil
}

func parseAddress(addr string) (*mail.Address, error) {
	a, err := mail.ParseAddress(addr)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", addr, err)
	}
	return a, nil
}
