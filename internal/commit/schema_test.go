package commit

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The recording-store tests never interpret SQL, so a column name drifting
// from the migrations would only surface against a live database. This test
// closes that gap: every table and column the store's statements name must
// exist in the schema the migrations create.

var (
	createTableRe = regexp.MustCompile(`(?s)CREATE TABLE (\w+) \((.*?)\n\);`)
	insertRe      = regexp.MustCompile(`(?s)INSERT INTO (\w+)\s*\(([^)]*)\)`)
	updateRe      = regexp.MustCompile(`(?s)UPDATE (\w+) SET (.+?) WHERE (\w+) =`)
	deleteRe      = regexp.MustCompile(`DELETE FROM (\w+) WHERE (\w+) =`)
	assignRe      = regexp.MustCompile(`(\w+)\s*=`)
)

// migrationColumns parses the initial migration into table → column set.
func migrationColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	ddl, err := os.ReadFile("../../migrations/000001_init.up.sql")
	require.NoError(t, err)

	constraintKeywords := map[string]bool{
		"CHECK": true, "PRIMARY": true, "FOREIGN": true,
		"UNIQUE": true, "CONSTRAINT": true,
	}

	tables := make(map[string]map[string]bool)
	for _, m := range createTableRe.FindAllStringSubmatch(string(ddl), -1) {
		cols := make(map[string]bool)
		for _, line := range strings.Split(m[2], "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			first := strings.Fields(line)[0]
			if constraintKeywords[strings.TrimRight(first, "(")] {
				continue
			}
			cols[first] = true
		}
		tables[m[1]] = cols
	}
	require.NotEmpty(t, tables, "no CREATE TABLE blocks parsed from migration")
	return tables
}

func requireColumns(t *testing.T, tables map[string]map[string]bool, table string, cols ...string) {
	t.Helper()
	schema, ok := tables[table]
	require.True(t, ok, "statement targets table %q which no migration creates", table)
	for _, col := range cols {
		assert.True(t, schema[col], "table %q has no column %q", table, col)
	}
}

func TestStoreStatementsMatchMigratedSchema(t *testing.T) {
	tables := migrationColumns(t)

	src, err := os.ReadFile("postgres.go")
	require.NoError(t, err)
	sql := string(src)

	for _, m := range insertRe.FindAllStringSubmatch(sql, -1) {
		for _, col := range strings.Split(m[2], ",") {
			requireColumns(t, tables, m[1], strings.TrimSpace(col))
		}
	}

	for _, m := range updateRe.FindAllStringSubmatch(sql, -1) {
		requireColumns(t, tables, m[1], m[3])
		for _, set := range assignRe.FindAllStringSubmatch(m[2], -1) {
			requireColumns(t, tables, m[1], set[1])
		}
	}

	for _, m := range deleteRe.FindAllStringSubmatch(sql, -1) {
		requireColumns(t, tables, m[1], m[2])
	}
}

func TestStoreCoversEveryContentTable(t *testing.T) {
	// Guards against a rename in the migrations leaving the store silently
	// pointed at a dropped table.
	src, err := os.ReadFile("postgres.go")
	require.NoError(t, err)
	sql := string(src)

	for _, table := range []string{
		"courses", "course_skills", "modules", "course_items", "lessons",
		"lesson_resources", "exams", "question_bank", "question_answers",
		"exam_questions",
	} {
		assert.Contains(t, sql, table, "store no longer touches table %q", table)
	}
}
