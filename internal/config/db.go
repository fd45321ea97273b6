package config

import (
	"context"
	"database/sql"
	"log"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// ConnectDB initializes the shared DB connection (idempotent). The
// structured store defaults to a local SQLite file under the data dir;
// DB_DRIVER=mysql with a DSN switches to a hosted database.
func ConnectDB(env Env) *sql.DB {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB
	}

	driver := env.DBDriver
	dsn := env.DBDSN
	if dsn == "" && driver == "sqlite3" {
		dsn = filepath.Join(env.DataDir, "itinerary.db")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Fatalf("failed to open DB (%s): %v", driver, err)
	}

	if driver == "sqlite3" {
		// SQLite tolerates a single writer only.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(10 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping DB (%s): %v", driver, err)
	}

	DB = db
	log.Printf("connected to %s document store", driver)
	return DB
}

func EnsureDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		return sql.ErrConnDone
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
