package orders

import (
	"bytes"
	"fmt"
	"html"
	"text/template"

	"order-notifier/internal/domain"
)

const emailLayout = `<html>` +
	`<body>` +
	`<h1>Nuevo Pedido</h1>` +
	`<p><strong>Order ID:</strong> {{escape .OrderID}}</p>` +
	`<p><strong>Producto:</strong> {{escape .ProductID}}</p>` +
	`<p><strong>Cantidad:</strong> {{.Quantity}}</p>` +
	`<p><strong>Total:</strong> {{.TotalFixed}}</p>` +
	`<p><strong>Cliente:</strong> {{escape .CustomerName}}</p>` +
	`<p><strong>Fecha de Creación:</strong> {{escape .CreatedAt}}</p>` +
	`</body>` +
	`</html>`

// Field values only ever land in element text.
var emailTmpl = template.Must(template.New("order-email").
	Funcs(template.FuncMap{"escape": html.EscapeString}).
	Parse(emailLayout))

// TopicMessage is the plain-text summary published to the topic.
func TopicMessage(o domain.Order) string {
	return fmt.Sprintf("Pedido recibido: ID=%s, Producto=%s, Cantidad=%d, Total=%s",
		o.OrderID, o.ProductID, o.Quantity, o.TotalFixed())
}

// EmailSubject is the subject line of the order email.
func EmailSubject(o domain.Order) string {
	return "Nuevo Pedido Recibido: " + o.OrderID
}

// EmailBody renders the HTML email. Markup characters in text fields are escaped.
func EmailBody(o domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, o); err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}
