package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go-receipts-api/internal/model"

	"github.com/shopspring/decimal"
)

const (
	slipDateLayout  = "02.01.2006 15:04"
	slipThankYouMsg = "Thank you for your purchase!"
)

// RenderReceipt lays the receipt out as a fixed-width printable slip.
// Widths are counted in runes. Centered lines are left-padded only, using
// truncating division, and never right-padded.
func RenderReceipt(receipt *model.Receipt, ownerName string, lineLength int) string {
	var b strings.Builder

	writeCentered(&b, ownerName, lineLength)
	writeRule(&b, '=', lineLength)

	half := lineLength / 2
	for i, p := range receipt.Products {
		b.WriteString(decimal.NewFromInt(int64(p.Quantity)).StringFixed(2))
		b.WriteString(" x ")
		b.WriteString(p.Price.StringFixed(2))
		b.WriteByte('\n')

		nameLines := []string{p.Name}
		if runeLen(p.Name) > half {
			nameLines = wrapText(p.Name, half)
		}

		subtotal := p.Subtotal().StringFixed(2)
		for j, line := range nameLines {
			b.WriteString(line)
			if j == len(nameLines)-1 {
				b.WriteString(spaces(lineLength - runeLen(line) - len(subtotal)))
				b.WriteString(subtotal)
			} else {
				b.WriteString(spaces(lineLength - runeLen(line)))
			}
			b.WriteByte('\n')
		}

		if i != len(receipt.Products)-1 {
			writeRule(&b, '-', lineLength)
		}
	}

	writeRule(&b, '=', lineLength)
	writeLabeled(&b, "Total:", receipt.Total.StringFixed(2), lineLength)
	writeLabeled(&b, "Payment type:", string(receipt.PaymentType), lineLength)
	writeLabeled(&b, "Payment amount:", receipt.PaymentAmount.StringFixed(2), lineLength)
	writeLabeled(&b, "Rest:", receipt.Rest.StringFixed(2), lineLength)
	writeRule(&b, '=', lineLength)

	writeCentered(&b, receipt.CreatedAt.UTC().Format(slipDateLayout), lineLength)
	writeCentered(&b, slipThankYouMsg, lineLength)

	return b.String()
}

// wrapText greedily breaks text at the last space before maxLength,
// hard-breaking at maxLength when there is none. Leading whitespace of each
// continuation line is dropped.
func wrapText(text string, maxLength int) []string {
	var lines []string
	runes := []rune(text)
	for len(runes) > maxLength {
		split := lastSpace(runes[:maxLength])
		if split == -1 {
			split = maxLength
		}
		lines = append(lines, string(runes[:split]))
		runes = trimLeftSpace(runes[split:])
	}
	return append(lines, string(runes))
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

func trimLeftSpace(runes []rune) []rune {
	for len(runes) > 0 && unicode.IsSpace(runes[0]) {
		runes = runes[1:]
	}
	return runes
}

func writeCentered(b *strings.Builder, text string, lineLength int) {
	b.WriteString(spaces((lineLength - runeLen(text)) / 2))
	b.WriteString(text)
	b.WriteByte('\n')
}

func writeRule(b *strings.Builder, ch byte, lineLength int) {
	b.WriteString(strings.Repeat(string(ch), lineLength))
	b.WriteByte('\n')
}

// writeLabeled pads between label and value so the value ends at lineLength.
func writeLabeled(b *strings.Builder, label, value string, lineLength int) {
	b.WriteString(label)
	b.WriteString(spaces(lineLength - runeLen(label) - runeLen(value)))
	b.WriteString(value)
	b.WriteByte('\n')
}

// spaces returns n blanks, or nothing when n is negative.
func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
