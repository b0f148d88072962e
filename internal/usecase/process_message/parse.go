package process_message

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// resetKeywords слова, возвращающие разговор в меню из любого шага
var resetKeywords = map[string]struct{}{
	"menu":     {},
	"cancel":   {},
	"back":     {},
	"0":        {},
	"cancelar": {},
	"voltar":   {},
}

// isResetKeyword сравнивает без учета регистра и обрамляющей разметки ("*menu*", "menu!")
func isResetKeyword(text string) bool {
	word := strings.TrimFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	_, ok := resetKeywords[strings.ToLower(word)]
	return ok
}

// parseChoice номер варианта 1..max. Допускаются "2", "2)" и "2."
func parseChoice(text string, max int) (int, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimRight(s, ").")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

// parseDate дата DD/MM/YYYY в часовом поясе арендатора, не раньше сегодняшнего дня.
// "hoje" и "amanhã" тоже принимаются
func parseDate(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	today := now.In(loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "hoje":
		return today, true
	case "amanha", "amanhã":
		return today.AddDate(0, 0, 1), true
	}

	date, err := time.ParseInLocation(domain.DisplayDateFormat, strings.TrimSpace(text), loc)
	if err != nil || date.Before(today) {
		return time.Time{}, false
	}
	return date, true
}

// parseName имя клиента: без цифр, в допустимых границах длины
func parseName(text string) (string, bool) {
	name := strings.Join(strings.Fields(text), " ")
	if len([]rune(name)) < domain.MinCustomerNameLength || len([]rune(name)) > domain.MaxCustomerNameLength {
		return "", false
	}
	if strings.ContainsAny(name, "0123456789") {
		return "", false
	}
	return name, true
}
