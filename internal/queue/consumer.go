package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartInvitationConsumer connects to RabbitMQ, declares the durable
// invitation.email queue and starts consuming messages. Each message is
// delivered over SMTP when MAIL_SERVER is configured, otherwise appended to
// logs/invitations.log so local environments still see what would have been
// sent. The function runs a reconnect loop with exponential backoff; it
// keeps running across broker outages and rejects messages it cannot
// process so the server continues operating. Delivery failures are never
// propagated back to the admission path.
func StartInvitationConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("invitation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("invitation-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("invitation-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(InvitationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(InvitationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("invitation-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var job InvitationEmail
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if host := os.Getenv("MAIL_SERVER"); host != "" {
		if err := sendSMTP(host, job); err != nil {
			// Fall through to the local log so the invitation is not lost silently.
			log.Printf("invitation-consumer: smtp delivery to %s failed: %v", job.To, err)
		} else {
			return nil
		}
	}
	return appendInvitationLog(job)
}

// sendSMTP delivers the invitation through the configured mail server using
// plain auth when MAIL_USERNAME is set.
func sendSMTP(host string, job InvitationEmail) error {
	port := os.Getenv("MAIL_PORT")
	if port == "" {
		port = "587"
	}
	sender := os.Getenv("EMAIL_SENDER")
	if sender == "" {
		sender = "no-reply@localhost"
	}

	var auth smtp.Auth
	if user := os.Getenv("MAIL_USERNAME"); user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("MAIL_PASSWORD"), host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		sender, job.To, job.Subject, job.Body)
	return smtp.SendMail(host+":"+port, auth, sender, []string{job.To}, []byte(msg))
}

func appendInvitationLog(job InvitationEmail) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "invitations.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Invitation queued | to=%s | event_id=%d | subject=%q | body=%q\n",
		time.Now().UTC().Format(time.RFC3339), job.To, job.EventID, job.Subject, job.Body)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
