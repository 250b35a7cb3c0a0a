package mail

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/PixelShop/internal/pkg/jobqueue"
)

// Message is a templated email waiting to be delivered.
type Message struct {
	To       string
	Template Template
	Data     map[string]string
}

// Dispatcher hands a message off for asynchronous delivery. It never waits for
// the email to be sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// QueueDispatcher enqueues messages on the job queue; queue workers render and send them.
type QueueDispatcher struct {
	queue  *jobqueue.Queue
	sender Sender
}

// NewQueueDispatcher registers the send_email handler on q.
func NewQueueDispatcher(q *jobqueue.Queue, sender Sender) *QueueDispatcher {
	d := &QueueDispatcher{queue: q, sender: sender}
	q.RegisterHandler(jobqueue.JobTypeSendEmail, d.handle)
	return d
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, msg Message) error {
	payload := jobqueue.SendEmailJobPayload{
		To:       msg.To,
		Template: string(msg.Template),
		Data:     msg.Data,
	}
	if _, err := d.queue.EnqueueJob(ctx, jobqueue.JobTypeSendEmail, payload.ToMap()); err != nil {
		return fmt.Errorf("enqueue %s email: %w", msg.Template, err)
	}
	return nil
}

func (d *QueueDispatcher) handle(ctx context.Context, job *jobqueue.Job) error {
	payload, err := jobqueue.SendEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return err
	}
	return Deliver(d.sender, Message{
		To:       payload.To,
		Template: Template(payload.Template),
		Data:     payload.Data,
	})
}

// Deliver renders msg and sends it synchronously.
func Deliver(sender Sender, msg Message) error {
	subject, body, err := Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	return sender.Send(msg.To, subject, body)
}
