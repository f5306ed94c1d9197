package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"storefront/internal/models"
)

// Config holds SMTP connection details.
type Config struct {
	Host       string
	Port       int
	User       string
	Pass       string
	From       string
	AdminEmail string
}

// Mailer sends transactional email over SMTP.
type Mailer struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string
}

// New creates a Mailer from SMTP settings.
func New(cfg Config) *Mailer {
	return &Mailer{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:       cfg.From,
		adminEmail: cfg.AdminEmail,
	}
}

// SendOrderConfirmation mails the customer their order summary. user is nil
// for guest orders; the shipping first name is used as the greeting then.
func (m *Mailer) SendOrderConfirmation(order *models.Order, user *models.User) error {
	html, err := RenderOrderConfirmation(order, user)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order Confirmation - %s", order.DisplayNumber())
	return m.send(order.ShippingAddress.Email, subject, html)
}

// SendAdminAlert mails the store administrator about a new order. It is a
// no-op when no admin address is configured.
func (m *Mailer) SendAdminAlert(order *models.Order) error {
	if m.adminEmail == "" {
		return nil
	}
	html, err := RenderAdminAlert(order)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("New Order Received - %s", order.DisplayNumber())
	return m.send(m.adminEmail, subject, html)
}

// SendPasswordReset mails a password-reset token to the account holder.
func (m *Mailer) SendPasswordReset(user *models.User, token string) error {
	html, err := RenderPasswordReset(user, token)
	if err != nil {
		return err
	}
	return m.send(user.Email, "Password Reset Request", html)
}

func (m *Mailer) send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"lineTotal": func(price float64, qty int) string {
		return fmt.Sprintf("%.2f", price*float64(qty))
	},
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>Order Confirmed!</h2>
  <p>Hello {{.Greeting}},</p>
  <p>Your order has been received and is being processed.</p>
  <h3>Order Details</h3>
  <p><strong>Order ID:</strong> {{.OrderNumber}}</p>
  <p><strong>Order Date:</strong> {{.Date}}</p>
  <p><strong>Payment Method:</strong> {{.Order.PaymentMethod}}</p>
  {{if .Order.PaymentCode}}
  <h4>Payment Code (for Cash on Delivery):</h4>
  <p><strong>{{.Order.PaymentCode}}</strong></p>
  <p><small>Please provide this code to the delivery person when making payment.</small></p>
  {{end}}
  <h4>Items Ordered:</h4>
  <ul>
  {{range .Order.Items}}
    <li>{{.Name}} x {{.Quantity}} = ${{lineTotal .Price .Quantity}}</li>
  {{end}}
  </ul>
  <p><strong>Total Amount:</strong> ${{money .Order.Total}}</p>
  <h3>Shipping Address</h3>
  <p>{{.Order.ShippingAddress.FirstName}} {{.Order.ShippingAddress.LastName}}<br>
  {{.Order.ShippingAddress.Address}}<br>
  {{.Order.ShippingAddress.City}}, {{.Order.ShippingAddress.ZipCode}}</p>
  <p>We will notify you when your order ships!</p>
</body>
</html>`))

var adminTmpl = template.Must(template.New("admin").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>New Order Received!</h2>
  <p>Order {{.OrderNumber}} requires processing.</p>
  <h3>Customer Information</h3>
  <p><strong>Name:</strong> {{.Order.ShippingAddress.FirstName}} {{.Order.ShippingAddress.LastName}}</p>
  <p><strong>Email:</strong> {{.Order.ShippingAddress.Email}}</p>
  {{if .Order.ShippingAddress.Phone}}<p><strong>Phone:</strong> {{.Order.ShippingAddress.Phone}}</p>{{end}}
  <h3>Order Summary</h3>
  <p><strong>Order Value:</strong> ${{money .Order.Total}}</p>
  <p><strong>Payment Method:</strong> {{.Order.PaymentMethod}}</p>
  <h4>Order Items:</h4>
  <ul>
  {{range .Order.Items}}
    <li>{{.Name}} (Qty: {{.Quantity}}) = ${{lineTotal .Price .Quantity}}</li>
  {{end}}
  </ul>
  <h3>Shipping Details</h3>
  <p>{{.Order.ShippingAddress.Address}}<br>
  {{.Order.ShippingAddress.City}}, {{.Order.ShippingAddress.ZipCode}}</p>
</body>
</html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>Password Reset</h2>
  <p>Hello {{.Username}},</p>
  <p>A password reset was requested for your account. Use the token below to
  set a new password. It expires in one hour.</p>
  <p><strong>{{.Token}}</strong></p>
  <p>If you did not request this, you can ignore this email.</p>
</body>
</html>`))

type orderView struct {
	Order       *models.Order
	OrderNumber string
	Greeting    string
	Date        string
}

// RenderOrderConfirmation produces the customer confirmation HTML.
func RenderOrderConfirmation(order *models.Order, user *models.User) (string, error) {
	greeting := order.ShippingAddress.FirstName
	if user != nil {
		greeting = user.Username
	}
	if greeting == "" {
		greeting = "Customer"
	}

	view := orderView{
		Order:       order,
		OrderNumber: order.DisplayNumber(),
		Greeting:    greeting,
		Date:        order.CreatedAt.Format(time.RFC1123),
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render confirmation email: %w", err)
	}
	return buf.String(), nil
}

// RenderAdminAlert produces the administrator notification HTML.
func RenderAdminAlert(order *models.Order) (string, error) {
	view := orderView{
		Order:       order,
		OrderNumber: order.DisplayNumber(),
	}
	var buf bytes.Buffer
	if err := adminTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render admin email: %w", err)
	}
	return buf.String(), nil
}

// RenderPasswordReset produces the password-reset HTML.
func RenderPasswordReset(user *models.User, token string) (string, error) {
	var buf bytes.Buffer
	err := resetTmpl.Execute(&buf, struct {
		Username string
		Token    string
	}{Username: user.Username, Token: token})
	if err != nil {
		return "", fmt.Errorf("failed to render reset email: %w", err)
	}
	return buf.String(), nil
}
