package backtest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Ledger records every order and fill of a run in an in-memory DuckDB
// database, so trade statistics are plain SQL and the result can be exported
// to Parquet without an extra serialization path.
type Ledger struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewLedger opens an in-memory database for a single run.
func NewLedger(logger *logger.Logger) (*Ledger, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to open database", err)
	}

	return &Ledger{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the necessary tables for tracking orders and fills.
func (l *Ledger) Initialize() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			side TEXT,
			quantity BIGINT,
			requested_price DOUBLE,
			created_at TIMESTAMP,
			bar_index INTEGER,
			status TEXT,
			reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to create orders table", err)
	}

	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			order_id TEXT,
			side TEXT,
			quantity BIGINT,
			price DOUBLE,
			commission DOUBLE,
			pnl DOUBLE,
			time TIMESTAMP,
			reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to create fills table", err)
	}

	return nil
}

// RecordOrder inserts a newly created order.
func (l *Ledger) RecordOrder(order types.Order) error {
	insertQuery := l.sq.
		Insert("orders").
		Columns(
			"order_id", "side", "quantity", "requested_price", "created_at",
			"bar_index", "status", "reason",
		).
		Values(
			order.OrderID, order.Side, order.Quantity, order.RequestedPrice,
			order.CreatedAt, order.BarIndex, order.Status, order.Reason,
		).
		RunWith(l.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to insert order", err)
	}

	return nil
}

// UpdateOrderStatus records the terminal status of an order.
func (l *Ledger) UpdateOrderStatus(orderID string, status types.OrderStatus) error {
	updateQuery := l.sq.
		Update("orders").
		Set("status", status).
		Where(squirrel.Eq{"order_id": orderID}).
		RunWith(l.db)

	if _, err := updateQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to update order status", err)
	}

	return nil
}

// RecordFill inserts an executed fill.
func (l *Ledger) RecordFill(fill types.Fill) error {
	insertQuery := l.sq.
		Insert("fills").
		Columns(
			"order_id", "side", "quantity", "price", "commission", "pnl",
			"time", "reason",
		).
		Values(
			fill.OrderID, fill.Side, fill.Quantity, fill.Price, fill.Commission,
			fill.PnL, fill.Time, fill.Reason,
		).
		RunWith(l.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to insert fill", err)
	}

	return nil
}

// GetFills returns all fills in execution order.
func (l *Ledger) GetFills() ([]types.Fill, error) {
	selectQuery := l.sq.
		Select(
			"order_id", "side", "quantity", "price", "commission", "pnl",
			"time", "reason",
		).
		From("fills").
		OrderBy("time ASC").
		RunWith(l.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to query fills", err)
	}
	defer rows.Close()

	var fills []types.Fill

	for rows.Next() {
		var fill types.Fill

		err := rows.Scan(
			&fill.OrderID,
			&fill.Side,
			&fill.Quantity,
			&fill.Price,
			&fill.Commission,
			&fill.PnL,
			&fill.Time,
			&fill.Reason,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to scan fill", err)
		}

		fills = append(fills, fill)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "error iterating fills", err)
	}

	return fills, nil
}

// GetOrders returns all orders in creation order.
func (l *Ledger) GetOrders() ([]types.Order, error) {
	selectQuery := l.sq.
		Select(
			"order_id", "side", "quantity", "requested_price", "created_at",
			"bar_index", "status", "reason",
		).
		From("orders").
		OrderBy("created_at ASC").
		RunWith(l.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to query orders", err)
	}
	defer rows.Close()

	var orders []types.Order

	for rows.Next() {
		var order types.Order

		err := rows.Scan(
			&order.OrderID,
			&order.Side,
			&order.Quantity,
			&order.RequestedPrice,
			&order.CreatedAt,
			&order.BarIndex,
			&order.Status,
			&order.Reason,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to scan order", err)
		}

		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "error iterating orders", err)
	}

	return orders, nil
}

// CalculateTradeResult aggregates the per-round-trip outcome counts. A round
// trip is one sell fill; its pnl column already nets out the entry.
func (l *Ledger) CalculateTradeResult() (types.TradeResult, error) {
	query := `
		WITH trade_stats AS (
			SELECT
				COUNT(*) as total_trades,
				SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END) as winning_trades,
				SUM(CASE WHEN pnl < 0 THEN 1 ELSE 0 END) as losing_trades
			FROM fills
			WHERE side = ?
		)
		SELECT
			total_trades,
			COALESCE(winning_trades, 0),
			COALESCE(losing_trades, 0),
			CASE WHEN total_trades > 0 THEN CAST(winning_trades AS DOUBLE) / total_trades ELSE 0 END as win_rate
		FROM trade_stats
	`

	var result types.TradeResult

	err := l.db.QueryRow(query, types.OrderSideSell).Scan(
		&result.NumberOfTrades,
		&result.NumberOfWinningTrades,
		&result.NumberOfLosingTrades,
		&result.WinRate,
	)
	if err != nil {
		return types.TradeResult{}, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to calculate trade result", err)
	}

	return result, nil
}

// CalculateTotalFees sums the commission across all fills.
func (l *Ledger) CalculateTotalFees() (float64, error) {
	query := l.sq.
		Select("COALESCE(SUM(commission), 0)").
		From("fills").
		RunWith(l.db)

	var totalFees float64
	if err := query.QueryRow().Scan(&totalFees); err != nil {
		return 0, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to calculate total fees", err)
	}

	return totalFees, nil
}

// CalculateRealizedPnL sums the realized profit and loss across all fills.
func (l *Ledger) CalculateRealizedPnL() (float64, error) {
	query := l.sq.
		Select("COALESCE(SUM(pnl), 0)").
		From("fills").
		RunWith(l.db)

	var pnl float64
	if err := query.QueryRow().Scan(&pnl); err != nil {
		return 0, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to calculate realized pnl", err)
	}

	return pnl, nil
}

// Cleanup resets the database state.
func (l *Ledger) Cleanup() error {
	_, err := l.db.Exec(`
		DROP TABLE IF EXISTS fills;
		DROP TABLE IF EXISTS orders;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerInitFailed, "failed to cleanup tables", err)
	}

	return l.Initialize()
}

// Write exports the orders and fills to Parquet files in the given directory.
func (l *Ledger) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to create directory", err)
	}

	// COPY has no placeholder support, so the paths are formatted in.
	fillsPath := filepath.Join(path, "fills.parquet")
	if _, err := l.db.Exec(fmt.Sprintf(`COPY fills TO '%s' (FORMAT PARQUET)`, fillsPath)); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to export fills to Parquet", err)
	}

	ordersPath := filepath.Join(path, "orders.parquet")
	if _, err := l.db.Exec(fmt.Sprintf(`COPY orders TO '%s' (FORMAT PARQUET)`, ordersPath)); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to export orders to Parquet", err)
	}

	l.logger.Info("Successfully exported results to Parquet files",
		zap.String("fills", fillsPath),
		zap.String("orders", ordersPath),
	)

	return nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
