package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset *int64
		sqlite        string
		postgres      string
	}{
		{"none", nil, nil, "", ""},
		{"limit", int64Ptr(2), nil, " LIMIT 2", " LIMIT 2"},
		{"both", int64Ptr(2), int64Ptr(1), " LIMIT 2 OFFSET 1", " LIMIT 2 OFFSET 1"},
		{"offset only", nil, int64Ptr(3), " LIMIT -1 OFFSET 3", " OFFSET 3"},
		{"zero limit", int64Ptr(0), nil, " LIMIT 0", " LIMIT 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sqlite, SQLite{}.Pagination(tt.limit, tt.offset))
			assert.Equal(t, tt.postgres, Postgres{}.Pagination(tt.limit, tt.offset))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", SQLite{}.Placeholder(3))
	assert.Equal(t, "$3", Postgres{}.Placeholder(3))
}

func TestDialectByName(t *testing.T) {
	for name, want := range map[string]string{
		"":           "sqlite",
		"SQLite":     "sqlite",
		"sqlite3":    "sqlite",
		"postgres":   "postgres",
		"postgresql": "postgres",
		"pgx":        "postgres",
	} {
		d, err := DialectByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, d.Name(), name)
	}

	_, err := DialectByName("oracle")
	assert.Error(t, err)
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
	assert.Equal(t, `'it''s'`, quoteLiteral("it's"))
	assert.Equal(t, `"table_1"."id"`, columnRef("table_1", "id"))
}
