package exam

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"quizbank-server/models"
)

// IntN returns a uniform integer in [0, n). Tests swap in a deterministic source.
type IntN func(n int) int

func defaultIntN(intn IntN) IntN {
	if intn == nil {
		return rand.IntN
	}
	return intn
}

// Permutation returns a uniformly random permutation of 0..n-1 (Fisher–Yates).
func Permutation(n int, intn IntN) []int {
	intn = defaultIntN(intn)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// ShuffleOrder returns the ids in a new uniformly random order. The input is
// left untouched.
func ShuffleOrder(ids []uuid.UUID, intn IntN) []uuid.UUID {
	perm := Permutation(len(ids), intn)
	out := make([]uuid.UUID, len(ids))
	for k, p := range perm {
		out[k] = ids[p]
	}
	return out
}

// ShuffleOptions permutes a question's options and moves CorrectAnswer with the
// option it pointed at. Questions whose answer index is already out of range
// are returned unchanged.
func ShuffleOptions(q models.Question, intn IntN) models.Question {
	if !q.ValidAnswer() {
		return q
	}
	perm := Permutation(len(q.Options), intn)
	options := make([]string, len(q.Options))
	correct := q.CorrectAnswer
	for k, p := range perm {
		options[k] = q.Options[p]
		if p == q.CorrectAnswer {
			correct = k
		}
	}
	q.Options = options
	q.CorrectAnswer = correct
	return q
}

// SampleIDs draws min(count, len(ids)) ids uniformly without replacement.
func SampleIDs(ids []uuid.UUID, count int, intn IntN) []uuid.UUID {
	intn = defaultIntN(intn)
	if count <= 0 {
		return []uuid.UUID{}
	}
	pool := append([]uuid.UUID(nil), ids...)
	if count > len(pool) {
		count = len(pool)
	}
	// Partial Fisher–Yates: the first count slots end up as the sample.
	for i := 0; i < count; i++ {
		j := i + intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count]
}

// OrderByIDs re-emits questions in the order of ids. Ids with no matching
// question are dropped.
func OrderByIDs(ids []uuid.UUID, questions []models.Question) []models.Question {
	byID := make(map[uuid.UUID]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	out := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

// AppendUnique appends the ids of add that are not yet present, keeping the
// first occurrence of each. It returns the merged sequence and how many ids
// were added.
func AppendUnique(existing, add []uuid.UUID) ([]uuid.UUID, int) {
	seen := make(map[uuid.UUID]bool, len(existing)+len(add))
	merged := make([]uuid.UUID, 0, len(existing)+len(add))
	for _, id := range existing {
		seen[id] = true
		merged = append(merged, id)
	}
	added := 0
	for _, id := range add {
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
		added++
	}
	return merged, added
}

// RemoveID drops every occurrence of id and reports whether anything changed.
func RemoveID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(ids)
}
