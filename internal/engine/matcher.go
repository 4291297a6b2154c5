// Package engine содержит чистую логику прохождения: сопоставление ответа и выбор пути.
// Пакет не знает о хранилище и не имеет глобального состояния.
package engine

import (
	"strings"
	"unicode"

	"story-server/internal/models"
)

// NormalizeAnswer приводит текст к нижнему регистру и удаляет все пробельные символы.
func NormalizeAnswer(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// MatchCandidates возвращает ответы, подходящие под submitted.
// Сначала точные совпадения среди обычных ответов, если их нет - ответы "всегда верно".
// Порядок входного списка сохраняется.
func MatchCandidates(submitted string, answers []models.Answer) []models.Answer {
	normalized := NormalizeAnswer(submitted)

	var exact, always []models.Answer
	for _, a := range answers {
		if a.IsAlwaysCorrect {
			always = append(always, a)
			continue
		}
		if NormalizeAnswer(a.Text) == normalized {
			exact = append(exact, a)
		}
	}

	if len(exact) > 0 {
		return exact
	}
	return always
}

// ContainsNormalized проверяет, входит ли text в набор текстов ответов после нормализации.
func ContainsNormalized(text string, answers []models.Answer) bool {
	normalized := NormalizeAnswer(text)
	for _, a := range answers {
		if NormalizeAnswer(a.Text) == normalized {
			return true
		}
	}
	return false
}
