// Package feed loads cached OHLCV files into a bar series. DuckDB does the
// parsing so CSV and Parquet share one reading path; there is no remote
// fetching here.
package feed

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// DuckDBFeed reads bar files through an in-memory DuckDB instance. The file
// must carry time, open, high, low, close and volume columns.
type DuckDBFeed struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBFeed opens an in-memory database for reading bar files.
func NewDuckDBFeed(logger *logger.Logger) (*DuckDBFeed, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedOpenFailed, "failed to open database", err)
	}

	return &DuckDBFeed{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Load reads the file at path into a validated bar series, optionally
// restricted to the [start, end] time range.
func (f *DuckDBFeed) Load(path string, start, end optional.Option[time.Time]) (*series.BarSeries, error) {
	reader, err := readerFor(path)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Loading bars", zap.String("path", path))

	// CREATE VIEW has no placeholder support, so the path is formatted in.
	_, err = f.db.Exec(fmt.Sprintf(`
		CREATE OR REPLACE VIEW bars AS
		SELECT * FROM %s('%s');
	`, reader, path))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFeedOpenFailed, err, "failed to read %s", path)
	}

	selectQuery := f.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("bars").
		OrderBy("time ASC")

	if start.IsSome() {
		selectQuery = selectQuery.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		selectQuery = selectQuery.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	rows, err := selectQuery.RunWith(f.db).Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFeedReadFailed, err, "failed to query bars from %s", path)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var bar types.Bar

		err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to scan bar", err)
		}

		bars = append(bars, bar)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedReadFailed, "error iterating bars", err)
	}

	f.logger.Info("Loaded bars",
		zap.String("path", path),
		zap.Int("count", len(bars)),
	)

	return series.New(bars)
}

// Close releases the database.
func (f *DuckDBFeed) Close() error {
	return f.db.Close()
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "read_csv_auto", nil
	case ".parquet":
		return "read_parquet", nil
	default:
		return "", errors.Newf(errors.ErrCodeFeedOpenFailed, "unsupported file extension %s, expected .csv or .parquet", filepath.Ext(path))
	}
}
