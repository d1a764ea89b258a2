// Package mail sends account-lifecycle emails. Delivery is asynchronous:
// messages are queued to a buffered channel and sent by a background
// worker, so callers never block on (or fail because of) SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"

	"github.com/jspark-dev/pantrykeeper/internal/logging"
)

// Sender delivers account emails. Implementations must not block the
// caller on delivery.
type Sender interface {
	SendVerificationCode(to string, code string)
	SendWelcome(to string, name string)
	SendLoginAlert(to string, userAgent string, ipAddress string)
	SendGoodbye(to string)
}

type message struct {
	to      string
	subject string
	body    string
}

// SMTPSender queues messages and delivers them over SMTP from a single
// background goroutine. When the queue is full new messages are dropped
// with a warning rather than blocking the request path.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string

	queue chan message
	log   logging.Logger
	wg    sync.WaitGroup

	// send is replaceable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

const queueSize = 64

func NewSMTPSender(host string, port int, username, password, from string, log logging.Logger) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		queue:    make(chan message, queueSize),
		log:      log,
		send:     smtp.SendMail,
	}
}

// Start launches the delivery worker. The worker drains the queue and
// exits once Stop closes it.
func (s *SMTPSender) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for m := range s.queue {
			s.deliver(m)
		}
	}()
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (s *SMTPSender) Stop() {
	close(s.queue)
	s.wg.Wait()
}

func (s *SMTPSender) deliver(m message) {
	ctx := context.Background()

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		s.from, m.to, m.subject, m.body))

	if err := s.send(addr, auth, s.from, []string{m.to}, msg); err != nil {
		s.log.Error(ctx, "mail delivery failed", "to", m.to, "subject", m.subject, "error", err)
		return
	}
	s.log.Debug(ctx, "mail delivered", "to", m.to, "subject", m.subject)
}

func (s *SMTPSender) enqueue(m message) {
	select {
	case s.queue <- m:
	default:
		s.log.Warn(context.Background(), "mail queue full, dropping message", "to", m.to, "subject", m.subject)
	}
}

func (s *SMTPSender) SendVerificationCode(to string, code string) {
	s.enqueue(message{
		to:      to,
		subject: "Your verification code",
		body:    fmt.Sprintf("Your verification code is %s.\nIt expires in 3 minutes.", code),
	})
}

func (s *SMTPSender) SendWelcome(to string, name string) {
	s.enqueue(message{
		to:      to,
		subject: "Welcome to PantryKeeper",
		body:    fmt.Sprintf("Hi %s,\n\nYour account is ready. Start tracking your pantry today.", name),
	})
}

func (s *SMTPSender) SendLoginAlert(to string, userAgent string, ipAddress string) {
	s.enqueue(message{
		to:      to,
		subject: "New sign-in to your account",
		body:    fmt.Sprintf("A new session was created for your account.\n\nDevice: %s\nIP address: %s\n\nIf this was not you, deactivate the session from your account page.", userAgent, ipAddress),
	})
}

func (s *SMTPSender) SendGoodbye(to string) {
	s.enqueue(message{
		to:      to,
		subject: "Your account has been deleted",
		body:    "Your account and all associated data have been removed.\nWe are sorry to see you go.",
	})
}
