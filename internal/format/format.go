// Package format renders catalog results and admin confirmations as MarkdownV2 text.
package format

import (
	"fmt"
	"strconv"
	"strings"

	tgformat "github.com/Pleso100/Kolgidrat/core/telegram/format"
	"github.com/Pleso100/Kolgidrat/internal/catalog"
)

const (
	resultsHeading = "Результати пошуку:"
	notFound       = "Продукти за Вашим запитом не знайдені."
)

// Results renders a heading followed by one block per product, in the given order.
func Results(products []catalog.Product) string {
	if len(products) == 0 {
		return tgformat.EscapeV2(notFound)
	}
	var b strings.Builder
	b.WriteString(tgformat.EscapeV2(resultsHeading))
	for i, p := range products {
		b.WriteString("\n")
		if i > 0 {
			b.WriteString("\n")
		}
		writeProduct(&b, p)
	}
	return b.String()
}

// NotFound is the reply for a search with no matches.
func NotFound() string {
	return tgformat.EscapeV2(notFound)
}

// Added confirms a stored product.
func Added(p catalog.Product) string {
	lines := []string{
		tgformat.EscapeV2("Додані дані про продукт:"),
		"Назва: " + bold(p.Name),
		"Вуглеводи: " + bold(Number(p.Carbs)),
		"Хлібні одиниці: " + tgformat.EscapeV2(Number(p.BreadUnits)),
		tgformat.EscapeV2("Продукт додано до бази даних. Продовжуйте пошук"),
	}
	return strings.Join(lines, "\n")
}

// Removed confirms a delete by name; count is the number of deleted rows.
func Removed(name string, count int64) string {
	lines := []string{"Назва: " + bold(name)}
	switch {
	case count == 0:
		lines = append(lines, tgformat.EscapeV2("Продукт не знайдено в базі даних. Продовжуйте пошук"))
	case count == 1:
		lines = append(lines, tgformat.EscapeV2("Продукт видалено з бази даних. Продовжуйте пошук"))
	default:
		lines = append(lines, tgformat.EscapeV2(fmt.Sprintf("Видалено записів: %d. Продовжуйте пошук", count)))
	}
	return strings.Join(lines, "\n")
}

// Number prints v in the shortest exact decimal form: 20.5, 2, 0.25.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeProduct(b *strings.Builder, p catalog.Product) {
	b.WriteString("Назва: ")
	b.WriteString(bold(p.Name))
	b.WriteString("\nВуглеводи на 100 г: ")
	b.WriteString(tgformat.EscapeV2(Number(p.Carbs)))
	b.WriteString("\nХлібні одиниці: ")
	b.WriteString(tgformat.EscapeV2(Number(p.BreadUnits)))
}

func bold(s string) string {
	return "*" + tgformat.EscapeV2(s) + "*"
}
