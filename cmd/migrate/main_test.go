package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpSection(t *testing.T) {
	src := "-- +migrate Up\nCREATE TABLE a (id INT);\n\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "CREATE TABLE a (id INT);", upSection(src))
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;\n"))
}

func TestPending(t *testing.T) {
	files := []string{"migrations/0002_b.sql", "migrations/0001_a.sql", "migrations/0003_c.sql"}
	got := pending(files, map[string]struct{}{"0002_b.sql": {}})
	assert.Equal(t, []string{"migrations/0001_a.sql", "migrations/0003_c.sql"}, got)
}
