package tablesource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValue(t *testing.T) {
	t.Run("lowercase key preferred", func(t *testing.T) {
		row := map[string]string{"id": "1", "ID": "2"}
		assert.Equal(t, "1", FieldValue(row, "id", "ID"))
	})

	t.Run("falls through empty values", func(t *testing.T) {
		row := map[string]string{"id": "  ", "ID": "2"}
		assert.Equal(t, "2", FieldValue(row, "id", "ID"))
	})

	t.Run("positional fallback", func(t *testing.T) {
		row := map[string]string{"#1": "42"}
		assert.Equal(t, "42", FieldValue(row, "id", "ID", PositionKey(1)))
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		row := map[string]string{"number": " 777 "}
		assert.Equal(t, "777", FieldValue(row, "number"))
	})

	t.Run("no match yields empty string", func(t *testing.T) {
		assert.Equal(t, "", FieldValue(map[string]string{}, "id", "ID"))
	})
}

func TestMapRows(t *testing.T) {
	t.Run("maps by header and position", func(t *testing.T) {
		rows := MapRows([]string{"id", "number"}, [][]string{{"1", "777"}})
		require.Len(t, rows, 1)
		assert.Equal(t, "1", rows[0]["id"])
		assert.Equal(t, "777", rows[0]["number"])
		assert.Equal(t, "1", rows[0][PositionKey(0)])
		assert.Equal(t, "777", rows[0][PositionKey(1)])
	})

	t.Run("blank header cells keep positional keys only", func(t *testing.T) {
		rows := MapRows([]string{"id", ""}, [][]string{{"1", "777"}})
		require.Len(t, rows, 1)
		assert.Equal(t, "777", rows[0][PositionKey(1)])
	})

	t.Run("duplicate headers keep the first column", func(t *testing.T) {
		rows := MapRows([]string{"id", "id"}, [][]string{{"1", "2"}})
		require.Len(t, rows, 1)
		assert.Equal(t, "1", rows[0]["id"])
		assert.Equal(t, "2", rows[0][PositionKey(1)])
	})

	t.Run("short rows are padded", func(t *testing.T) {
		rows := MapRows([]string{"id", "number"}, [][]string{{"1"}})
		require.Len(t, rows, 1)
		assert.Equal(t, "", rows[0]["number"])
	})

	t.Run("header whitespace is trimmed", func(t *testing.T) {
		rows := MapRows([]string{" id "}, [][]string{{"1"}})
		require.Len(t, rows, 1)
		assert.Equal(t, "1", rows[0]["id"])
	})
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("missing table is reported", func(t *testing.T) {
		m := NewMemory()
		_, err := m.ListRows(ctx, "nope")
		assert.ErrorIs(t, err, ErrTableNotFound)
		assert.ErrorIs(t, m.Append(ctx, "nope", []string{"x"}), ErrTableNotFound)
	})

	t.Run("create is idempotent", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Create(ctx, "log", []string{"timestamp", "id"}))
		require.NoError(t, m.Append(ctx, "log", []string{"now", "1"}))
		require.NoError(t, m.Create(ctx, "log", []string{"timestamp", "id"}))

		rows, err := m.ListRows(ctx, "log")
		require.NoError(t, err)
		assert.Len(t, rows, 1, "re-creating must not wipe existing rows")
	})

	t.Run("rows keep insertion order", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Create(ctx, "log", []string{"id"}))
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, m.Append(ctx, "log", []string{id}))
		}

		rows, err := m.ListRows(ctx, "log")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "a", rows[0]["id"])
		assert.Equal(t, "b", rows[1]["id"])
		assert.Equal(t, "c", rows[2]["id"])
	})

	t.Run("mock source is pre-seeded", func(t *testing.T) {
		m := NewMockSource("entries")
		rows, err := m.ListRows(ctx, "entries")
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, "777", rows[0]["number"])
		assert.Equal(t, "Lucky Seven", rows[0]["name"])
	})
}
