// turftrack-backup exports a model's computed GDD history (daily values,
// runs, resets) straight from Postgres for archival or offline analysis.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BackupFormat string

const (
	FormatCSV  BackupFormat = "csv"
	FormatJSON BackupFormat = "json"
)

type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	Format   BackupFormat
	Output   string
	ModelID  int
}

func main() {
	var cfg Config

	flag.StringVar(&cfg.Host, "host", "localhost", "Database host")
	flag.IntVar(&cfg.Port, "port", 5432, "Database port")
	flag.StringVar(&cfg.Database, "database", "turftrack", "Database name")
	flag.StringVar(&cfg.User, "user", "postgres", "Database user")
	flag.StringVar(&cfg.Password, "password", "", "Database password")
	flag.StringVar(&cfg.SSLMode, "sslmode", "disable", "SSL mode (disable, require, etc)")
	formatStr := flag.String("format", "csv", "Backup format: csv or json")
	flag.StringVar(&cfg.Output, "output", "gdd_backup", "Output file base name (extension added automatically)")
	flag.IntVar(&cfg.ModelID, "model", 0, "GDD model ID to export (0 exports all models)")
	flag.Parse()

	switch BackupFormat(*formatStr) {
	case FormatCSV, FormatJSON:
		cfg.Format = BackupFormat(*formatStr)
	default:
		log.Fatalf("Invalid format: %s. Must be csv or json", *formatStr)
	}

	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Printf("Connected to database %s@%s:%d", cfg.Database, cfg.Host, cfg.Port)

	query := `
		SELECT m.id, m.name, v.date, v.daily_gdd, v.cumulative_gdd, v.run, v.is_forecast
		FROM gdd_values v
		JOIN gdd_models m ON m.id = v.gdd_model_id`
	countQuery := "SELECT COUNT(*) FROM gdd_values v"
	var args []any
	if cfg.ModelID > 0 {
		query += " WHERE v.gdd_model_id = $1"
		countQuery += " WHERE v.gdd_model_id = $1"
		args = append(args, cfg.ModelID)
	}
	query += " ORDER BY m.id, v.date"

	var totalCount int64
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		log.Fatalf("Failed to get record count: %v", err)
	}
	log.Printf("Found %d values to export", totalCount)

	switch cfg.Format {
	case FormatCSV:
		err = backupToCSV(ctx, pool, query, args, cfg.Output+".csv")
	case FormatJSON:
		err = backupToJSON(ctx, pool, query, args, cfg.Output+".json")
	}
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	log.Printf("Export completed successfully")
}

type exportRow struct {
	ModelID       int     `json:"model_id"`
	ModelName     string  `json:"model_name"`
	Date          string  `json:"date"`
	DailyGDD      float64 `json:"daily_gdd"`
	CumulativeGDD float64 `json:"cumulative_gdd"`
	Run           int     `json:"run"`
	IsForecast    bool    `json:"is_forecast"`
}

func scanRows(ctx context.Context, pool *pgxpool.Pool, query string, args []any, emit func(exportRow) error) error {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r exportRow
		var date time.Time
		if err := rows.Scan(&r.ModelID, &r.ModelName, &date, &r.DailyGDD, &r.CumulativeGDD, &r.Run, &r.IsForecast); err != nil {
			return err
		}
		r.Date = date.Format("2006-01-02")
		if err := emit(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func backupToCSV(ctx context.Context, pool *pgxpool.Pool, query string, args []any, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"model_id", "model_name", "date", "daily_gdd", "cumulative_gdd", "run", "is_forecast"}); err != nil {
		return err
	}

	count := 0
	err = scanRows(ctx, pool, query, args, func(r exportRow) error {
		count++
		return w.Write([]string{
			fmt.Sprintf("%d", r.ModelID),
			r.ModelName,
			r.Date,
			fmt.Sprintf("%g", r.DailyGDD),
			fmt.Sprintf("%g", r.CumulativeGDD),
			fmt.Sprintf("%d", r.Run),
			fmt.Sprintf("%t", r.IsForecast),
		})
	})
	if err != nil {
		return err
	}
	log.Printf("Wrote %d rows to %s", count, filename)
	return nil
}

func backupToJSON(ctx context.Context, pool *pgxpool.Pool, query string, args []any, filename string) error {
	var out []exportRow
	err := scanRows(ctx, pool, query, args, func(r exportRow) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	log.Printf("Wrote %d rows to %s", len(out), filename)
	return nil
}
