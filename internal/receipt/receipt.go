// Package receipt renders sales as fixed-width tickets for 58mm thermal printers.
package receipt

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mmynk/tiendapos/internal/calculator"
	"github.com/mmynk/tiendapos/internal/models"
)

// Width is the number of columns on a ticket.
const Width = 40

// Options configures a Renderer.
type Options struct {
	// Locale is a BCP 47 tag such as es-PE. It decides digit grouping and the decimal mark.
	Locale string
	// Currency is an ISO 4217 code. It decides the number of decimals.
	Currency string
	// Symbol is printed before the total. Empty prints the ISO code.
	Symbol string
	// Location is the time zone dates are printed in. Nil means UTC.
	Location *time.Location
}

// Renderer formats receipts. It is safe for concurrent use.
type Renderer struct {
	scale  int
	symbol string
	loc    *time.Location

	// Digit grouping taken from the locale. Integer parts shorter than
	// minGroup digits are printed ungrouped.
	group    string
	point    string
	minGroup int
}

// NewRenderer validates the locale and currency.
func NewRenderer(opts Options) (*Renderer, error) {
	tag, err := language.Parse(opts.Locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", opts.Locale, err)
	}
	unit, err := currency.ParseISO(opts.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", opts.Currency, err)
	}
	scale, _ := currency.Standard.Rounding(unit)

	symbol := opts.Symbol
	if symbol == "" {
		symbol = unit.String()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	group, point, minGroup := separators(message.NewPrinter(tag))
	return &Renderer{
		scale:    scale,
		symbol:   symbol,
		loc:      loc,
		group:    group,
		point:    point,
		minGroup: minGroup,
	}, nil
}

// separators asks the locale how it writes 1234567.5 and 1234, and keeps the
// marks it used. Locales with non-ASCII digits fall back to "," and ".".
func separators(p *message.Printer) (group, point string, minGroup int) {
	sample := p.Sprint(number.Decimal(1234567.5, number.Scale(1)))
	i := strings.Index(sample, "234")
	j := strings.Index(sample, "567")
	if !strings.HasPrefix(sample, "1") || i < 1 || j < i || !strings.HasSuffix(sample, "5") || j+3 > len(sample)-1 {
		return ",", ".", 4
	}
	group, point = sample[1:i], sample[j+3:len(sample)-1]
	minGroup = 4
	if group != "" && !strings.Contains(p.Sprint(number.Decimal(1234, number.Scale(0))), group) {
		minGroup = 5
	}
	return group, point, minGroup
}

// Receipt is everything printed on a ticket.
type Receipt struct {
	Business *models.Business
	Sale     *models.Sale
	// Cashier is the display name of the user who rang up the sale.
	Cashier string
	// Customer is optional.
	Customer *models.Customer
	// TaxRate is printed next to the tax line.
	TaxRate decimal.Decimal
}

var paymentLabels = map[calculator.PaymentMethod]string{
	calculator.PaymentCash:     "Efectivo",
	calculator.PaymentCard:     "Tarjeta",
	calculator.PaymentTransfer: "Transferencia",
	calculator.PaymentCredit:   "Crédito",
}

// Render returns the ticket text, one line per row, each at most Width columns.
func (r *Renderer) Render(rc Receipt) (string, error) {
	if rc.Sale == nil || rc.Business == nil {
		return "", errors.New("receipt requires a sale and a business")
	}
	sale := rc.Sale
	t := sale.Totals

	var b ticket
	b.center(strings.ToUpper(rc.Business.Name))
	if rc.Business.TaxID != "" {
		b.center("RUC " + rc.Business.TaxID)
	}
	if rc.Business.Address != "" {
		b.center(rc.Business.Address)
	}
	b.rule()

	b.text("Venta: " + sale.Number)
	b.text("Fecha: " + time.Unix(sale.CreatedAt, 0).In(r.loc).Format("02/01/2006 15:04"))
	if rc.Cashier != "" {
		b.text("Cajero: " + rc.Cashier)
	}
	if rc.Customer != nil {
		b.text("Cliente: " + rc.Customer.DocumentNumber + " " + rc.Customer.Name)
	}
	b.rule()

	for _, item := range sale.Items {
		b.text(item.Name)
		b.pair(fmt.Sprintf("  %d x %s", item.Quantity, r.amount(item.UnitPrice)), r.amount(item.LineTotal))
	}
	b.rule()

	b.pair("Subtotal", r.amount(t.Subtotal))
	if t.DiscountApplied.IsPositive() {
		b.pair("Descuento", "-"+r.amount(t.DiscountApplied))
	}
	if sale.TaxApplied {
		b.pair("Op. gravada", r.amount(t.TaxableBase))
		b.pair("IGV "+rc.TaxRate.Mul(decimal.NewFromInt(100)).String()+"%", r.amount(t.TaxAmount))
	}
	b.pair("TOTAL "+r.symbol, r.amount(t.Total))
	b.text("Pago: " + paymentLabel(sale.PaymentMethod))
	if sale.PaymentMethod == calculator.PaymentCash {
		b.pair("Recibido", r.amount(t.CashReceived))
		b.pair("Vuelto", r.amount(t.Change))
	}
	b.rule()

	if sale.Status == models.SaleVoided {
		b.center("*** ANULADA ***")
	}
	b.center("Gracias por su compra")
	return b.String(), nil
}

// amount formats d exactly at the currency scale with the locale's marks.
func (r *Renderer) amount(d decimal.Decimal) string {
	s := d.StringFixed(int32(r.scale))
	sign := ""
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign, s = "-", rest
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(whole) >= r.minGroup {
		whole = groupDigits(whole, r.group)
	}
	if frac == "" {
		return sign + whole
	}
	return sign + whole + r.point + frac
}

func groupDigits(digits, sep string) string {
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteRune(c)
	}
	return b.String()
}

func paymentLabel(m calculator.PaymentMethod) string {
	if label, ok := paymentLabels[m]; ok {
		return label
	}
	return string(m)
}

// ticket accumulates fixed-width lines.
type ticket struct {
	strings.Builder
}

func (t *ticket) line(s string) {
	t.WriteString(s)
	t.WriteByte('\n')
}

func (t *ticket) text(s string) {
	t.line(truncate(s, Width))
}

func (t *ticket) rule() {
	t.line(strings.Repeat("-", Width))
}

func (t *ticket) center(s string) {
	s = truncate(s, Width)
	pad := (Width - utf8.RuneCountInString(s)) / 2
	t.line(strings.Repeat(" ", pad) + s)
}

// pair right-aligns value, truncating label to make room.
func (t *ticket) pair(label, value string) {
	room := Width - utf8.RuneCountInString(value) - 1
	if room < 0 {
		room = 0
	}
	label = truncate(label, room)
	gap := Width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if gap < 1 {
		gap = 1
	}
	t.line(label + strings.Repeat(" ", gap) + value)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
