package risk

import (
	"strings"
)

// Известные тикеры на W, не являющиеся варрантами
var notWarrants = map[string]struct{}{
	"BMW":  {},
	"SCHW": {},
	"SNOW": {},
	"FLOW": {},
	"GLOW": {},
	"GROW": {},
	"KNOW": {},
	"SHOW": {},
	"STEW": {},
	"VIEW": {},
}

// IsWarrant определяет варрант по суффиксу тикера.
// Эвристика: хвостовая W при длине не менее четырех символов,
// за вычетом фиксированного списка исключений.
func IsWarrant(ticker string) bool {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if len(t) < 4 {
		return false
	}
	if _, ok := notWarrants[t]; ok {
		return false
	}
	return strings.HasSuffix(t, "W")
}

// Underlying возвращает тикер базовой акции варранта
func Underlying(warrantTicker string) string {
	return strings.TrimRight(strings.ToUpper(strings.TrimSpace(warrantTicker)), "W")
}
