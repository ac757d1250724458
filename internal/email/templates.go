package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

const pageHeader = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #2e7d32 0%%, #8bc34a 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">`

const pageFooter = `
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message from UjyaloKhet. Contact support if anything looks wrong.
		</p>
	</div>
</body>
</html>`

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(orderID string, total decimal.Decimal, items []OrderItem) string {
	var itemsHTML strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">Rs. %s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">Rs. %s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			FormatRupees(item.Price),
			FormatRupees(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(pageHeader, "Thank you for your order"))
	b.WriteString(fmt.Sprintf(`
		<p style="margin-top: 0;">Your order has been placed and will be paid on delivery.</p>
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Product</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Unit price</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>
		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #2e7d32; margin-left: 10px;">Rs. %s</span>
		</div>`, html.EscapeString(orderID), itemsHTML.String(), FormatRupees(total)))
	b.WriteString(pageFooter)
	return b.String()
}

// BuildPaymentReceiptBody builds the HTML body for an eSewa payment receipt.
func BuildPaymentReceiptBody(orderID, transactionCode string, amount decimal.Decimal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(pageHeader, "Payment received"))
	b.WriteString(fmt.Sprintf(`
		<p style="margin-top: 0;">We received your eSewa payment. Your order is confirmed.</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tr><td style="padding: 8px; color: #666;">Order number</td><td style="padding: 8px; font-family: monospace;">%s</td></tr>
			<tr><td style="padding: 8px; color: #666;">eSewa reference</td><td style="padding: 8px; font-family: monospace;">%s</td></tr>
			<tr><td style="padding: 8px; color: #666;">Amount paid</td><td style="padding: 8px; font-weight: bold;">Rs. %s</td></tr>
		</table>`, html.EscapeString(orderID), html.EscapeString(transactionCode), FormatRupees(amount)))
	b.WriteString(pageFooter)
	return b.String()
}

// FormatRupees formats an amount with two decimals and comma separators.
func FormatRupees(d decimal.Decimal) string {
	str := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	intPart, frac, _ := strings.Cut(str, ".")
	return sign + groupThousands(intPart) + "." + frac
}

// groupThousands formats a digit string with comma separators
func groupThousands(str string) string {
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		if len(str) > remainder {
			result.WriteString(",")
		}
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
