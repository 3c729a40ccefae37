package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/config"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
)

const (
	branchesQuery  = `SELECT id, name_ln1 AS name FROM gl_branch ORDER BY name_ln1`
	productsQuery  = `SELECT id, name_ln1 AS name FROM pl_account_type WHERE pl_account_category_id = ? ORDER BY name_ln1`
	instituteQuery = `SELECT id, name_ln1 AS name FROM it_institute LIMIT 1`
)

// DB is the MySQL collaborator that executes report and lookup queries
type DB struct {
	conn         *sql.DB
	queryTimeout time.Duration
}

// New opens a connection pool to the core banking database
func New(cfg config.DatabaseConfig, queryTimeout time.Duration) (*DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.Params = map[string]string{"charset": "utf8mb4"}

	log.Info().Str("addr", mc.Addr).Str("database", cfg.Database).Str("username", cfg.Username).Msg("Connecting to MySQL")

	conn, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := NewWithConn(conn, queryTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Health(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to test MySQL connection: %w", err)
	}

	log.Info().Msg("Connected to MySQL")
	return db, nil
}

// NewWithConn wraps an existing pool
func NewWithConn(conn *sql.DB, queryTimeout time.Duration) *DB {
	return &DB{conn: conn, queryTimeout: queryTimeout}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Health pings the database
func (db *DB) Health(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.queryTimeout)
}

// ExecuteReport runs a report statement. SQL errors are reported in the
// result envelope; cancellation and timeouts are returned as errors.
func (db *DB) ExecuteReport(ctx context.Context, stmt models.Statement) (*models.QueryResult, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return failure(ctx, err)
	}
	defer rows.Close()

	columns, data, err := rowsToMaps(rows)
	if err != nil {
		return failure(ctx, err)
	}

	log.Debug().
		Int("rows", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Report query executed")

	return &models.QueryResult{
		Success:  true,
		Data:     data,
		Columns:  columns,
		RowCount: len(data),
	}, nil
}

func failure(ctx context.Context, err error) (*models.QueryResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("report query: %w", err)
	}
	log.Error().Err(err).Msg("Report query failed")
	return &models.QueryResult{Success: false, Error: err.Error()}, nil
}

// rowsToMaps scans every row into a map keyed by column name. Text columns
// arrive as []byte and are converted to strings.
func rowsToMaps(rows *sql.Rows) ([]string, []models.ReportRow, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	result := []models.ReportRow{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		row := make(models.ReportRow, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}

	return columns, result, rows.Err()
}

// ListBranches returns every branch ordered by name
func (db *DB) ListBranches(ctx context.Context) ([]models.Branch, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, branchesQuery)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	branches := []models.Branch{}
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// ListProducts returns the account types of category ordered by name
func (db *DB) ListProducts(ctx context.Context, category int64) ([]models.Product, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, productsQuery, category)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetInstitute returns the institute record, nil when none is configured
func (db *DB) GetInstitute(ctx context.Context) (*models.Institute, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var inst models.Institute
	err := db.conn.QueryRowContext(ctx, instituteQuery).Scan(&inst.ID, &inst.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query institute: %w", err)
	}
	return &inst, nil
}
