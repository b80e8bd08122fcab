// Package queue defines the message payloads exchanged over the broker and
// the producer/consumer pair moving them. Notification delivery is
// fire-and-forget: the admission path enqueues and returns, and delivery
// failures stay inside the consumer.
package queue

import "context"

// InvitationQueueName is the durable queue carrying invitation emails.
const InvitationQueueName = "invitation.email"

// InvitationEmail is published when a bulk-invitation batch provisions a new
// attendee. It contains everything the consumer needs to deliver the mail
// without querying the primary database.
type InvitationEmail struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	SignupCode string `json:"signup_code"`
	EventID    uint64 `json:"event_id"`
}

// Publisher enqueues invitation emails. The admission engine depends on this
// interface so tests can capture published jobs without a broker.
type Publisher interface {
	PublishInvitation(ctx context.Context, job InvitationEmail) error
}
