package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Cheertaboi/storefront/internal/models"
)

const storeName = "Storefront"

var printer = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount with Vietnamese digit grouping.
func FormatVND(v int64) string {
	return printer.Sprintf("%d", v) + " ₫"
}

// OrderCode is the short reference shown to customers.
func OrderCode(id fmt.Stringer) string {
	s := strings.ReplaceAll(id.String(), "-", "")
	return strings.ToUpper(s[len(s)-8:])
}

var layout = template.Must(template.New("layout").Funcs(template.FuncMap{
	"vnd": FormatVND,
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .OTP}}
<p>Hello <strong>{{.Email}}</strong>,</p>
<p>Use this code to reset your {{.Store}} password:</p>
<div class="otp-box">{{.OTP}}</div>
<p>The code expires in <strong>{{.ValidFor}}</strong>. Do not share it with anyone.</p>
{{else}}
<p>Hello <strong>{{.Name}}</strong>, thank you for your order.</p>
<p><strong>Order:</strong> #{{.Code}}<br>
<strong>Placed:</strong> {{.Order.CreatedAt.Format "02/01/2006 15:04"}}<br>
<strong>Ship to:</strong> {{.Order.ShippingAddress}}</p>
<table>
<tr><th>#</th><th>Product</th><th>Price</th><th>Qty</th><th>Amount</th></tr>
{{range $i, $it := .Order.Items}}<tr><td>{{inc $i}}</td><td>{{$it.Name}}{{if $it.VariantName}} ({{$it.VariantName}}){{end}}</td><td>{{vnd $it.Price}}</td><td>{{$it.Quantity}}</td><td>{{vnd $it.LineTotal}}</td></tr>
{{end}}</table>
{{with .Order.Pricing}}
<p>Subtotal: {{vnd .Subtotal}}<br>
Tax (VAT 10%): {{vnd .Tax}}<br>
Shipping: {{vnd .ShippingFee}}<br>
{{if gt .DiscountValue 0}}Discount code: -{{vnd .DiscountValue}}<br>{{end}}
{{if gt .UsedPointsValue 0}}Loyalty points: -{{vnd .UsedPointsValue}}<br>{{end}}
<strong>Total: {{vnd .Total}}</strong></p>
{{end}}
{{end}}
<p>This is an automated message from {{.Store}}, please do not reply.</p>
</body>
</html>`))

type templateData struct {
	Title    string
	Store    string
	Email    string
	OTP      string
	ValidFor string
	Name     string
	Code     string
	Order    *models.Order
}

func render(data templateData) (string, error) {
	data.Store = storeName
	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "render mail")
	}
	return buf.String(), nil
}

// ResetCodeMessage builds the password reset mail.
func ResetCodeMessage(to, code string, validFor time.Duration) (Message, error) {
	html, err := render(templateData{Title: "Password reset code", Email: to, OTP: code, ValidFor: validFor.String()})
	if err != nil {
		return Message{}, err
	}
	text := fmt.Sprintf("Password reset - %s\n\nEmail: %s\nYour code: %s\n\nThe code expires in %s. Do not share it with anyone.",
		storeName, to, code, validFor)
	return Message{
		To:      to,
		Subject: "Password reset code - " + storeName,
		Text:    text,
		HTML:    html,
	}, nil
}

// OrderConfirmationMessage builds the mail sent after checkout.
func OrderConfirmationMessage(name string, order *models.Order) (Message, error) {
	if name == "" {
		name = order.Email
	}
	code := OrderCode(order.ID)
	html, err := render(templateData{Title: "Order confirmation #" + code, Name: name, Code: code, Order: order})
	if err != nil {
		return Message{}, err
	}

	lines := []string{
		fmt.Sprintf("Hello %s,", name),
		"",
		fmt.Sprintf("Order #%s has been received. Total: %s.", code, FormatVND(order.Pricing.Total)),
		"Ship to: " + order.ShippingAddress,
		"",
		"Items:",
	}
	for _, it := range order.Items {
		variant := ""
		if it.VariantName != "" {
			variant = " (" + it.VariantName + ")"
		}
		lines = append(lines, fmt.Sprintf("- %s%s x%d = %s", it.Name, variant, it.Quantity, FormatVND(it.LineTotal())))
	}
	lines = append(lines, "", "Thank you for shopping at "+storeName+".")

	return Message{
		To:      order.Email,
		Subject: fmt.Sprintf("Order confirmation #%s - %s", code, storeName),
		Text:    strings.Join(lines, "\n"),
		HTML:    html,
	}, nil
}
