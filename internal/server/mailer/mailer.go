// Package mailer is the backend's email stub. Nothing is delivered: messages
// are either kept in an in-memory outbox or written to the log.
package mailer

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

var ErrNoRecipients = errors.New("email has no recipients")

type Mailer interface {
	Send(ctx context.Context, email models.Email) error
}

func validate(email models.Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}

// Outbox remembers every accepted message. Setting Fail makes Send reject
// messages with that error.
type Outbox struct {
	mu       sync.Mutex
	messages []models.Email
	Fail     error
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(ctx context.Context, email models.Email) error {
	if err := validate(email); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Fail != nil {
		return o.Fail
	}
	email.To = append([]string(nil), email.To...)
	o.messages = append(o.messages, email)
	return nil
}

// SetFail changes the injected failure; nil restores normal delivery.
func (o *Outbox) SetFail(err error) {
	o.mu.Lock()
	o.Fail = err
	o.mu.Unlock()
}

// Messages returns a copy of the accepted messages in send order.
func (o *Outbox) Messages() []models.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Email, len(o.messages))
	copy(out, o.messages)
	return out
}

// Last returns the most recent message addressed to to.
func (o *Outbox) Last(to string) (models.Email, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		for _, rcpt := range o.messages[i].To {
			if rcpt == to {
				return o.messages[i], true
			}
		}
	}
	return models.Email{}, false
}

// LogMailer writes each message to the logger instead of sending it.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, email models.Email) error {
	if err := validate(email); err != nil {
		return err
	}
	m.logger.Info(ctx, "email sent", "from", email.From, "to", email.To, "subject", email.Subject, "html", email.HTML)
	return nil
}
