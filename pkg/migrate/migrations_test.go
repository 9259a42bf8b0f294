package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"create_books_table": {
			"CREATE TABLE IF NOT EXISTS books",
			"price NUMERIC(12,2) NOT NULL",
			"stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		},
		"create_cart_lines_table": {
			"CREATE TABLE IF NOT EXISTS cart_lines",
			"quantity INTEGER NOT NULL CHECK (quantity > 0)",
			"CONSTRAINT cart_lines_user_book_key UNIQUE (user_id, book_id)",
		},
		"create_shipping_rates_table": {
			"CREATE TABLE IF NOT EXISTS shipping_rates",
			"country_code CHAR(2) PRIMARY KEY",
		},
	}

	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			assert.Contains(t, content, sub, suffix)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Book ISBN")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_book_isbn.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestCreateSQLMigrationRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path, err := createSQLMigration(dir, "seed shipping rates", at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260301120000_seed_shipping_rates.sql"), path)

	_, err = createSQLMigration(dir, "seed shipping rates", at)
	assert.ErrorContains(t, err, "already exists")
}

func TestValidateDirRejects(t *testing.T) {
	empty := t.TempDir()
	assert.ErrorContains(t, ValidateDir(empty), "no migrations")

	reversed := t.TempDir()
	body := []byte("-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x (id INT);\n")
	require.NoError(t, os.WriteFile(filepath.Join(reversed, "20260301120000_x.sql"), body, 0o644))
	assert.ErrorContains(t, ValidateDir(reversed), "Down before Up")
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d)

	d, err = DialectFor("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d)

	_, err = DialectFor("oracle")
	assert.Error(t, err)
}
