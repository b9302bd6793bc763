package quiz_test

import (
	"path/filepath"
	"testing"

	"github.com/jbpratt/quotes/internal/quiz"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSQLiteSource(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	ctx := t.Context()

	src, err := quiz.OpenSQLiteSource(ctx, logger, filepath.Join(t.TempDir(), "quotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, src.Close())
	})

	_, err = src.Records(ctx)
	require.Error(t, err)
	require.Empty(t, quiz.Load(ctx, logger, src))

	records, err := quiz.LiteralSource(threeQuotes).Records(ctx)
	require.NoError(t, err)

	inserted, err := src.Import(ctx, records)
	require.NoError(t, err)
	require.Equal(t, 3, inserted)

	inserted, err = src.Import(ctx, append(records, &quiz.Record{Phrase: "", Author: "skipped"}))
	require.NoError(t, err)
	require.Zero(t, inserted)

	stored, err := src.Records(ctx)
	require.NoError(t, err)
	require.Equal(t, records, stored)

	require.NoError(t, src.Remove(ctx, "Só sei que nada sei."))
	require.Error(t, src.Remove(ctx, "never stored"))

	stored = quiz.Load(ctx, logger, src)
	require.Len(t, stored, 2)
	for _, r := range stored {
		require.NotEqual(t, "Sócrates", r.Author)
	}
}
