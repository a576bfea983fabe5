// notification/notifier.go
package notification

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Notifier is the outbound message channel the reminder dispatcher fans out
// through. Delivery failure for one recipient must never stop the loop, so
// implementations return the error and leave retry policy to the caller.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPNotifier delivers messages over plain SMTP.
type SMTPNotifier struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPNotifier builds a notifier for the given server. Empty username
// skips authentication (local relay setups).
func NewSMTPNotifier(host, port, username, password, from string) *SMTPNotifier {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPNotifier{
		addr: host + ":" + port,
		from: from,
		auth: auth,
	}
}

// Send delivers one message to one recipient.
func (n *SMTPNotifier) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s\r\n", to, n.from, subject, body))
	if err := smtp.SendMail(n.addr, n.auth, n.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of delivering them. Used in
// development and tests.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message.
func (n *LogNotifier) Send(to, subject, body string) error {
	n.logger.Info("outbound message",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
