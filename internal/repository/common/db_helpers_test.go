package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "($1, $2, $3)", Placeholders(1, 3))
	assert.Equal(t, "($1, $2), ($3, $4), ($5, $6)", Placeholders(3, 2))
	assert.Equal(t, "", Placeholders(0, 2))
}

func TestWhere(t *testing.T) {
	var w Where
	assert.Equal(t, "", w.SQL())

	w.Add("p.category = ?", "Design")
	w.AddRaw("u.status = 'actif'")
	w.Add("(p.title ILIKE ? OR p.bio ILIKE ?)", "%go%")

	assert.Equal(t, " WHERE p.category = $1 AND u.status = 'actif' AND (p.title ILIKE $2 OR p.bio ILIKE $2)", w.SQL())
	assert.Equal(t, []any{"Design", "%go%"}, w.Args())

	page, args := w.Page(12, 24)
	assert.Equal(t, " LIMIT $3 OFFSET $4", page)
	assert.Equal(t, []any{"Design", "%go%", 12, 24}, args)
	assert.Len(t, w.Args(), 2)
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "users_email_key"))
	assert.False(t, IsUniqueViolation(err, "payments_reference_key"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}
