package nlu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Entity keys produced by Extract.
const (
	EntityAmount   = "amount"   // integer cents, decimal string
	EntityPeriod   = "period"   // canonical period key, see periods
	EntityQuantity = "quantity" // bare integer
	EntityPanel    = "panel"    // canonical panel name, see panels
)

// Canonical period keys.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodYear      = "year"
	PeriodQuarter   = "quarter"
)

// periods maps surface forms to canonical period keys. Spanish first; English
// accepted for mixed input.
var periods = map[string]string{
	"hoy":       PeriodToday,
	"today":     PeriodToday,
	"ayer":      PeriodYesterday,
	"yesterday": PeriodYesterday,
	"semana":    PeriodWeek,
	"week":      PeriodWeek,
	"mes":       PeriodMonth,
	"month":     PeriodMonth,
	"año":       PeriodYear,
	"anio":      PeriodYear,
	"year":      PeriodYear,
	"trimestre": PeriodQuarter,
	"quarter":   PeriodQuarter,
}

// panels is the fixed enumeration of navigation targets.
var panels = []string{"ventas", "bancos", "clientes", "ordenes", "movimientos", "resumen"}

var (
	amountRe   = regexp.MustCompile(`\$\s*\d+(?:[.,]\d{3})*(?:[.,]\d{1,2})?|\b\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?\b|\b\d+[.,]\d{1,2}\b`)
	quantityRe = regexp.MustCompile(`\b(\d+)\s+(?:unidades?|piezas?|cajas?|bultos?|productos?|items?)\b`)
	periodRe   = regexp.MustCompile(`\b(hoy|today|ayer|yesterday|semana|week|mes|month|año|anio|year|trimestre|quarter)\b`)
	bareIntRe  = regexp.MustCompile(`^\d+$`)
	bareNumRe  = regexp.MustCompile(`\b\d+\b`)
)

// Extract pulls typed values out of raw text. It is pure and never fails:
// unknown text yields an empty map.
func Extract(text string) map[string]string {
	out := map[string]string{}
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return out
	}

	if m := amountRe.FindString(lower); m != "" {
		if cents, ok := ParseAmount(m); ok {
			out[EntityAmount] = strconv.FormatInt(cents, 10)
		}
	}
	// The currency symbol and separators are optional: a plain number reads as
	// an amount, unless a unit noun marks it as a quantity.
	if _, ok := out[EntityAmount]; !ok {
		qty := quantityRe.FindStringIndex(lower)
		for _, loc := range bareNumRe.FindAllStringIndex(lower, -1) {
			if qty != nil && loc[0] >= qty[0] && loc[1] <= qty[1] {
				continue
			}
			if cents, ok := ParseAmount(lower[loc[0]:loc[1]]); ok {
				out[EntityAmount] = strconv.FormatInt(cents, 10)
				break
			}
		}
	}
	if m := quantityRe.FindStringSubmatch(lower); m != nil {
		out[EntityQuantity] = m[1]
	}
	if m := periodRe.FindStringSubmatch(lower); m != nil {
		out[EntityPeriod] = periods[m[1]]
	}
	for _, p := range panels {
		if strings.Contains(lower, p) || (p == "ordenes" && strings.Contains(lower, "órdenes")) {
			out[EntityPanel] = p
			break
		}
	}
	return out
}

// ParseAmount converts a currency string into integer cents. It accepts an
// optional $ prefix, thousands separators in either style, and an optional
// decimal part ("$5.000", "5,000.50", "1.500,75", "350"). A lone separator
// followed by exactly three digits is read as a thousands separator.
func ParseAmount(s string) (int64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, false
	}
	if bareIntRe.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n * 100, true
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	decSep := byte(0)
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Both present: the later one is the decimal separator.
		if lastDot > lastComma {
			decSep = '.'
		} else {
			decSep = ','
		}
	case lastDot >= 0:
		decSep = '.'
		if onlyThousands(s, '.') {
			decSep = 0
		}
	case lastComma >= 0:
		decSep = ','
		if onlyThousands(s, ',') {
			decSep = 0
		}
	}

	intPart, fracPart := s, ""
	if decSep != 0 {
		idx := strings.LastIndexByte(s, decSep)
		intPart, fracPart = s[:idx], s[idx+1:]
	}
	intPart = strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, intPart)
	if intPart == "" || !bareIntRe.MatchString(intPart) {
		return 0, false
	}
	if fracPart != "" && !bareIntRe.MatchString(fracPart) {
		return 0, false
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	cents := whole * 100
	switch len(fracPart) {
	case 0:
	case 1:
		f, _ := strconv.ParseInt(fracPart, 10, 64)
		cents += f * 10
	case 2:
		f, _ := strconv.ParseInt(fracPart, 10, 64)
		cents += f
	default:
		return 0, false
	}
	return cents, true
}

// onlyThousands reports whether every group after the given separator has
// exactly three digits, i.e. the separator marks thousands, not decimals.
func onlyThousands(s string, sep byte) bool {
	parts := strings.Split(s, string(sep))
	for i, p := range parts {
		if i > 0 && len(p) != 3 {
			return false
		}
	}
	return true
}

// FormatAmount renders integer cents for user-facing responses.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if frac == 0 {
		return fmt.Sprintf("%s$%s", sign, b.String())
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), frac)
}
