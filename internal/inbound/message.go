// Package inbound parses mail delivered to the note-creation address.
package inbound

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
)

var ErrNoSender = errors.New("message has no sender address")

var emailPattern = regexp.MustCompile(`([\w\-\.]+@(\w[\w\-]+\.)+[\w\-]+)`)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	Sender      string
	Subject     string
	Body        string
	Attachments []Attachment
}

// SenderAddress returns the first email address found in a From header,
// or "" when there is none.
func SenderAddress(from string) string {
	return emailPattern.FindString(from)
}

// Parse reads a raw RFC 5322 message. Headers and text parts are decoded to
// UTF-8 from their declared charsets. Every named part becomes an attachment.
func Parse(r io.Reader) (*Message, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	sender := SenderAddress(env.GetHeader("From"))
	if sender == "" {
		return nil, ErrNoSender
	}

	msg := &Message{
		Sender:  strings.ToLower(sender),
		Subject: env.GetHeader("Subject"),
		Body:    env.Text,
	}
	for _, group := range [][]*enmime.Part{env.Attachments, env.Inlines, env.OtherParts} {
		for _, p := range group {
			if p.FileName == "" {
				continue
			}
			msg.Attachments = append(msg.Attachments, Attachment{
				Name:        p.FileName,
				ContentType: p.ContentType,
				Data:        p.Content,
			})
		}
	}
	return msg, nil
}
