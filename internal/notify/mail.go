package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"digital-storefront/internal/config"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/wneessen/go-mail"
)

// mailQueueSize bounds the completion mails waiting for the SMTP server.
const mailQueueSize = 64

const mailSendTimeout = 30 * time.Second

// Mailer e-mails the customer when an order is completed. The message points
// at the order page; the credentials themselves are only ever shown there.
// Messages are sent by a background worker so a slow SMTP server never holds
// up the request that completed the order.
type Mailer struct {
	cfg     config.Mail
	baseURL string
	log     *log.Helper

	send  func(ctx context.Context, msg *mail.Msg) error
	queue chan *mail.Msg
	done  chan struct{}
	once  sync.Once
}

func NewMailer(cfg config.Mail, baseURL string, logger log.Logger) *Mailer {
	m := &Mailer{
		cfg:     cfg,
		baseURL: baseURL,
		log:     log.NewHelper(log.With(logger, "module", "notify/mail")),
		queue:   make(chan *mail.Msg, mailQueueSize),
		done:    make(chan struct{}),
	}
	m.send = m.dialAndSend
	go m.run()
	return m
}

// OrderChanged queues the completion mail and returns without waiting for
// delivery. A full queue drops the mail and reports it.
func (m *Mailer) OrderChanged(_ context.Context, event *OrderEvent, to *Recipient) error {
	if event.Type != EventOrderCompleted || to == nil || to.Email == "" {
		return nil
	}

	msg, err := m.completionMessage(event, to)
	if err != nil {
		return err
	}

	select {
	case m.queue <- msg:
		return nil
	default:
		return fmt.Errorf("mail queue full, dropping completion mail for order %s", event.OrderID)
	}
}

// Close stops accepting mails and waits for the queued ones to be sent.
func (m *Mailer) Close() error {
	m.once.Do(func() { close(m.queue) })
	<-m.done
	return nil
}

func (m *Mailer) run() {
	defer close(m.done)
	for msg := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		if err := m.send(ctx, msg); err != nil {
			m.log.Warnf("send completion mail: %v", err)
		}
		cancel()
	}
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("new mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("dial and send: %w", err)
	}
	return nil
}

func (m *Mailer) completionMessage(event *OrderEvent, to *Recipient) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to.Email); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Your order %s is ready", event.OrderID))
	msg.SetBodyString(mail.TypeTextPlain, completionBody(event, to, m.baseURL))
	return msg, nil
}

func completionBody(event *OrderEvent, to *Recipient, baseURL string) string {
	name := to.Name
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`Hi %s,

Your order %s (transaction %s) has been delivered.
Sign in and open %s/dashboard/orders/%s to view your access details.

Thank you for your purchase.
`, name, event.OrderID, event.TransactionID, baseURL, event.OrderID)
}
