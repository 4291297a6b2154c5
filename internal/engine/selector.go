package engine

import (
	"math/rand/v2"

	"story-server/internal/models"

	"github.com/google/uuid"
)

// RandomSource - источник случайности для выбора пути. IntN возвращает число в [0, n).
type RandomSource interface {
	IntN(n int) int
}

type pcgSource struct {
	r *rand.Rand
}

func (s *pcgSource) IntN(n int) int { return s.r.IntN(n) }

// NewRandomSource создает детерминированный источник с заданным сидом.
// Не безопасен для конкурентного использования.
func NewRandomSource(seed1, seed2 uint64) RandomSource {
	return &pcgSource{r: rand.New(rand.NewPCG(seed1, seed2))}
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultRandomSource использует потокобезопасный генератор пакета math/rand/v2.
func DefaultRandomSource() RandomSource { return globalSource{} }

// Resolution - итог разрешения ответа.
type Resolution struct {
	IsValid bool
	Answer  *models.Answer
	Path    *models.Path
}

// NextSheetID возвращает следующий лист или nil, если путь не выбран.
func (r Resolution) NextSheetID() *uuid.UUID {
	if r.Path == nil {
		return nil
	}
	id := r.Path.NextSheetID
	return &id
}

type poolEntry struct {
	answer int
	path   int
}

// ResolvePath выбирает один путь среди путей всех кандидатов с учетом веса Quantity.
// Пустой список кандидатов дает невалидный результат. Если у кандидатов нет путей
// с положительным весом, ответ засчитывается без перехода (первый кандидат).
func ResolvePath(candidates []models.Answer, rnd RandomSource) Resolution {
	if len(candidates) == 0 {
		return Resolution{}
	}

	var pool []poolEntry
	for ai := range candidates {
		for pi, p := range candidates[ai].Paths {
			for range max(p.Quantity, 0) {
				pool = append(pool, poolEntry{answer: ai, path: pi})
			}
		}
	}

	if len(pool) == 0 {
		answer := candidates[0]
		return Resolution{IsValid: true, Answer: &answer}
	}

	picked := pool[rnd.IntN(len(pool))]
	answer := candidates[picked.answer]
	path := answer.Paths[picked.path]
	return Resolution{IsValid: true, Answer: &answer, Path: &path}
}
