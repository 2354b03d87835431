package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"strings"

	"gearup-backend/internal/config"
	"gearup-backend/internal/models"

	"github.com/wneessen/go-mail"
)

// Mailer sends order confirmations over SMTP. It is injected into the
// checkout service as a plain dependency; there is no process-wide
// transport state.
type Mailer struct {
	client *mail.Client
	from   string
}

func New(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is not configured")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is not configured")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	if cfg.SkipTLSVerify {
		// Escape hatch for servers with self-signed certificates.
		opts = append(opts, mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Mailer{client: client, from: cfg.From}, nil
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *models.Order, customer *models.Customer) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(customer.Email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Order Confirmation - #%s", order.ID))
	msg.SetBodyString(mail.TypeTextPlain, ConfirmationText(order, customer))
	msg.AddAlternativeString(mail.TypeTextHTML, ConfirmationHTML(order, customer))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

// Disabled is the sender used when no SMTP host is configured. Every send
// fails, so orders are created with email_sent = false.
type Disabled struct{}

func (Disabled) SendOrderConfirmation(ctx context.Context, order *models.Order, customer *models.Customer) error {
	return fmt.Errorf("mail transport is not configured")
}

// ConfirmationHTML renders the confirmation body: greeting, order id, total
// to two decimal places, item list, and the delivery block with optional
// fields included only when present.
func ConfirmationHTML(order *models.Order, customer *models.Customer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>Thank you for your order, %s</h2>\n", html.EscapeString(customer.Name))
	fmt.Fprintf(&b, "<p>Order ID: %s</p>\n", order.ID)
	fmt.Fprintf(&b, "<p>Total: %s</p>\n", order.TotalAmount.StringFixed(2))

	b.WriteString("<h3>Items</h3>\n<ul>\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%s (x%d) - %s</li>\n",
			html.EscapeString(item.Name), item.Qty, item.Price.StringFixed(2))
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h3>Delivery details</h3>\n<p>\n")
	d := order.Delivery
	if d.Name != "" {
		fmt.Fprintf(&b, "<strong>%s</strong><br/>\n", html.EscapeString(d.Name))
	}
	if d.Line1 != "" {
		fmt.Fprintf(&b, "%s<br/>\n", html.EscapeString(d.Line1))
	}
	if d.Line2 != "" {
		fmt.Fprintf(&b, "%s<br/>\n", html.EscapeString(d.Line2))
	}
	if d.City != "" || d.State != "" {
		if d.City != "" {
			fmt.Fprintf(&b, "%s, ", html.EscapeString(d.City))
		}
		if d.State != "" {
			fmt.Fprintf(&b, "%s", html.EscapeString(d.State))
		}
		b.WriteString("<br/>\n")
	}
	if d.PostalCode != "" {
		fmt.Fprintf(&b, "Postal: %s<br/>\n", html.EscapeString(d.PostalCode))
	}
	if d.Country != "" {
		fmt.Fprintf(&b, "%s<br/>\n", html.EscapeString(d.Country))
	}
	if d.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s<br/>\n", html.EscapeString(d.Phone))
	}
	if d.Instructions != "" {
		fmt.Fprintf(&b, "<em>Instructions: %s</em><br/>\n", html.EscapeString(d.Instructions))
	}
	b.WriteString("</p>\n")

	return b.String()
}

// ConfirmationText is the plain-text alternative for clients that do not
// render HTML.
func ConfirmationText(order *models.Order, customer *models.Customer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Thank you for your order, %s\n\n", customer.Name)
	fmt.Fprintf(&b, "Order ID: %s\n", order.ID)
	fmt.Fprintf(&b, "Total: %s\n\n", order.TotalAmount.StringFixed(2))

	b.WriteString("Items:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  - %s (x%d) - %s\n", item.Name, item.Qty, item.Price.StringFixed(2))
	}

	b.WriteString("\nDelivery details:\n")
	d := order.Delivery
	for _, field := range []string{d.Name, d.Line1, d.Line2} {
		if field != "" {
			fmt.Fprintf(&b, "  %s\n", field)
		}
	}
	switch {
	case d.City != "" && d.State != "":
		fmt.Fprintf(&b, "  %s, %s\n", d.City, d.State)
	case d.City != "":
		fmt.Fprintf(&b, "  %s\n", d.City)
	case d.State != "":
		fmt.Fprintf(&b, "  %s\n", d.State)
	}
	if d.PostalCode != "" {
		fmt.Fprintf(&b, "  Postal: %s\n", d.PostalCode)
	}
	if d.Country != "" {
		fmt.Fprintf(&b, "  %s\n", d.Country)
	}
	if d.Phone != "" {
		fmt.Fprintf(&b, "  Phone: %s\n", d.Phone)
	}
	if d.Instructions != "" {
		fmt.Fprintf(&b, "  Instructions: %s\n", d.Instructions)
	}

	return b.String()
}
