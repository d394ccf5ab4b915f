package repository

import (
	"strings"
)

// keyed is the contract every stored record type satisfies through its pointer.
type keyed[T any] interface {
	*T
	EntityID() int
	SetEntityID(id int)
	Code() string
	Clone() T
}

// table is one in-memory collection. seq is the highest id ever handed out,
// so ids stay unique after deletions.
type table[T any, P keyed[T]] struct {
	rows []T
	seq  int
}

func newTable[T any, P keyed[T]](rows []T) *table[T, P] {
	t := &table[T, P]{rows: rows}
	if t.rows == nil {
		t.rows = make([]T, 0)
	}
	for i := range t.rows {
		if id := P(&t.rows[i]).EntityID(); id > t.seq {
			t.seq = id
		}
	}
	return t
}

// seed raises the id sequence to at least seq.
func (t *table[T, P]) seed(seq int) {
	if seq > t.seq {
		t.seq = seq
	}
}

func (t *table[T, P]) clone() *table[T, P] {
	rows := make([]T, len(t.rows))
	for i := range t.rows {
		rows[i] = P(&t.rows[i]).Clone()
	}
	return &table[T, P]{rows: rows, seq: t.seq}
}

func (t *table[T, P]) index(id int) int {
	for i := range t.rows {
		if P(&t.rows[i]).EntityID() == id {
			return i
		}
	}
	return -1
}

func (t *table[T, P]) get(id int) (T, error) {
	i := t.index(id)
	if i < 0 {
		var zero T
		return zero, ErrNotFound
	}
	return P(&t.rows[i]).Clone(), nil
}

func (t *table[T, P]) byCode(code string) (T, error) {
	for i := range t.rows {
		if strings.EqualFold(P(&t.rows[i]).Code(), strings.TrimSpace(code)) {
			return P(&t.rows[i]).Clone(), nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

func (t *table[T, P]) list() []T {
	out := make([]T, len(t.rows))
	for i := range t.rows {
		out[i] = P(&t.rows[i]).Clone()
	}
	return out
}

// codeTaken compares registration codes case-insensitively; empty codes never collide.
func (t *table[T, P]) codeTaken(code string, excludeID int) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for i := range t.rows {
		row := P(&t.rows[i])
		if row.EntityID() != excludeID && strings.EqualFold(row.Code(), code) {
			return true
		}
	}
	return false
}

func (t *table[T, P]) insert(rec P) error {
	if t.codeTaken(rec.Code(), 0) {
		return ErrDuplicateKey
	}
	t.seq++
	rec.SetEntityID(t.seq)
	t.rows = append(t.rows, rec.Clone())
	return nil
}

func (t *table[T, P]) replace(rec P) error {
	i := t.index(rec.EntityID())
	if i < 0 {
		return ErrNotFound
	}
	if t.codeTaken(rec.Code(), rec.EntityID()) {
		return ErrDuplicateKey
	}
	t.rows[i] = rec.Clone()
	return nil
}

func (t *table[T, P]) remove(id int) error {
	i := t.index(id)
	if i < 0 {
		return ErrNotFound
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}
