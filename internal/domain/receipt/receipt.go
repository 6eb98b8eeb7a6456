package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xenking/kdelights/internal/domain/pricing"
)

const (
	header    = "====== STRUK K-DELIGHTS ======"
	separator = "--------------------------------"
	timeFmt   = "2006-01-02 15:04:05"
)

// Receipt is everything printed for one completed payment.
type Receipt struct {
	Order            pricing.Breakdown
	PaidAt           time.Time
	PaymentMethod    string
	TransactionID    string
	RemainingBalance int64
	NextCoupon       string
}

// Renderer formats orders and receipts as fixed-layout text. Amounts use the
// locale's digit grouping with an "Rp" prefix.
type Renderer struct {
	p            *message.Printer
	discountRate decimal.Decimal
	taxRate      decimal.Decimal
}

// NewRenderer returns a Renderer for the locale and the rates used in labels.
func NewRenderer(tag language.Tag, rules pricing.Rules) *Renderer {
	return &Renderer{
		p:            message.NewPrinter(tag),
		discountRate: rules.DiscountRate,
		taxRate:      rules.TaxRate,
	}
}

// ParseLocale parses a BCP 47 tag, falling back to English.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}

// Money formats v as "Rp 130,000" (grouping per locale).
func (r *Renderer) Money(v int64) string {
	return "Rp " + r.p.Sprintf("%d", v)
}

// Summary renders the priced order shown before payment.
func (r *Renderer) Summary(b pricing.Breakdown) string {
	var sb strings.Builder
	sb.WriteString("Ringkasan Pesanan:\n")
	r.writeLines(&sb, b)
	sb.WriteString(separator + "\n")
	r.writeTotals(&sb, b)
	return sb.String()
}

// Render produces the receipt document.
func (r *Renderer) Render(rc Receipt) string {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	sb.WriteString("Waktu: " + rc.PaidAt.Format(timeFmt) + "\n\n")
	r.writeLines(&sb, rc.Order)
	sb.WriteString(separator + "\n")
	r.writeTotals(&sb, rc.Order)
	r.field(&sb, "Dibayar via", rc.PaymentMethod)
	r.field(&sb, "Transaksi ID", rc.TransactionID)
	sb.WriteString(fmt.Sprintf("Sisa saldo %s : %s\n", rc.PaymentMethod, r.Money(rc.RemainingBalance)))
	if rc.NextCoupon != "" {
		sb.WriteString("\nKupon untuk kunjungan berikutnya:\n")
		sb.WriteString("Kupon #1: " + rc.NextCoupon + "\n")
	}
	return sb.String()
}

func (r *Renderer) writeLines(sb *strings.Builder, b pricing.Breakdown) {
	for i, l := range b.Lines {
		sb.WriteString(fmt.Sprintf("%d) %s x%d -> %s\n", i+1, l.Item.Name, l.Quantity, r.Money(l.Total)))
		if l.Promo {
			sb.WriteString("   (Promo: +1 " + l.Item.Name + " GRATIS!)\n")
		}
	}
}

func (r *Renderer) writeTotals(sb *strings.Builder, b pricing.Breakdown) {
	r.field(sb, "Subtotal", r.Money(b.Subtotal))
	if b.Discount > 0 {
		r.field(sb, "Diskon "+percent(r.discountRate), "-"+r.Money(b.Discount))
	}
	if b.PromoCredit > 0 {
		r.field(sb, "Promo gratis", "-"+r.Money(b.PromoCredit))
	}
	if b.Coupon != nil {
		r.field(sb, "Kupon digunakan", fmt.Sprintf("-%s (hash: %s)", r.Money(b.Coupon.Value), b.Coupon.Code))
	}
	r.field(sb, "Pajak "+percent(r.taxRate), r.Money(b.Tax))
	r.field(sb, "Biaya layanan", r.Money(b.ServiceFee))
	sb.WriteString(separator + "\n")
	r.field(sb, "TOTAL BAYAR", r.Money(b.Total))
}

func (r *Renderer) field(sb *strings.Builder, label, value string) {
	sb.WriteString(fmt.Sprintf("%-16s: %s\n", label, value))
}

// percent renders 0.1 as "10%".
func percent(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}
