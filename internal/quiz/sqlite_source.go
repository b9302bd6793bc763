package quiz

import (
	"context"
	"database/sql"

	"github.com/friendsofgo/errors"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

const sqlQuotesTable = `
/*
  Quotes imported from any other source. Unique phrase allows for
  INSERT OR IGNORE on repeated imports.
*/
CREATE TABLE IF NOT EXISTS quotes (
  id      INTEGER PRIMARY KEY AUTOINCREMENT,
  phrase  TEXT    NOT NULL,
  author  TEXT    NOT NULL,
  removed TINYINT(1) NOT NULL DEFAULT 0,
  UNIQUE(phrase)
);
`

const sqlInsertQuote = `INSERT OR IGNORE INTO quotes (phrase, author) VALUES (?, ?)`

// SQLiteSource keeps quotes in a sqlite database.
type SQLiteSource struct {
	logger *zap.SugaredLogger
	db     *sql.DB
}

func OpenSQLiteSource(ctx context.Context, logger *zap.SugaredLogger, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open DB(%s)", path)
	}

	s, err := NewSQLiteSource(ctx, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLiteSource(ctx context.Context, logger *zap.SugaredLogger, db *sql.DB) (*SQLiteSource, error) {
	if _, err := db.ExecContext(ctx, sqlQuotesTable); err != nil {
		return nil, errors.Wrap(err, "failed to run init sql")
	}
	return &SQLiteSource{logger: logger, db: db}, nil
}

func (s *SQLiteSource) Records(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phrase, author FROM quotes WHERE removed = 0 ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query quotes")
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		r := &Record{}
		if err = rows.Scan(&r.Phrase, &r.Author); err != nil {
			return nil, errors.Wrap(err, "failed to scan quote")
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate quotes")
	}

	if len(records) == 0 {
		return nil, errors.Wrap(ErrSourceUnavailable, "quotes table is empty")
	}
	return records, nil
}

// Import stores records, ignoring phrases that are already present. It
// returns the number of new rows.
func (s *SQLiteSource) Import(ctx context.Context, records []*Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, sqlInsertQuote)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	var inserted int
	for _, r := range records {
		if !r.Valid() {
			continue
		}

		res, err := stmt.ExecContext(ctx, r.Phrase, r.Author)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to insert quote by %s", r.Author)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.Wrap(err, "failed to read affected rows")
		}
		inserted += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit transaction")
	}

	s.logger.Infow("imported quotes", "inserted", inserted, "offered", len(records))
	return inserted, nil
}

// Remove hides a quote from future sessions without deleting it.
func (s *SQLiteSource) Remove(ctx context.Context, phrase string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE quotes SET removed = 1 WHERE phrase = ?`, phrase)
	if err != nil {
		return errors.Wrap(err, "failed to remove quote")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Errorf("quote %q not found", phrase)
	}
	return nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
