package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"

	"github.com/SiteBossInc/owl-sync/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	dbc := cfg.Database

	// Connect to the postgres database first to create the target database
	// if it does not exist yet.
	adminDSN := fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=%s",
		dbc.User, dbc.Password, dbc.Host, dbc.Port, dbc.SSLMode)
	adminDB, err := sql.Open("postgres", adminDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to postgres database: %v\n", err)
		os.Exit(1)
	}
	defer adminDB.Close()

	var exists bool
	err = adminDB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbc.DBName,
	).Scan(&exists)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to check database existence: %v\n", err)
		os.Exit(1)
	}
	if !exists {
		fmt.Printf("Database '%s' does not exist. Creating...\n", dbc.DBName)
		if _, err := adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbc.DBName)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create database: %v\n", err)
			os.Exit(1)
		}
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbc.User, dbc.Password, dbc.Host, dbc.Port, dbc.DBName, dbc.SSLMode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ping database: %v\n", err)
		os.Exit(1)
	}

	migrationPath := filepath.Join("migrations", "000001_init_schema.up.sql")
	if len(os.Args) > 1 {
		migrationPath = os.Args[1]
	}

	sqlBytes, err := os.ReadFile(migrationPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read migration file: %v\n", err)
		os.Exit(1)
	}

	// The whole file runs as one statement batch; "already exists" errors
	// mean the migration was applied before.
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			fmt.Fprintf(os.Stderr, "Error executing migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migration already applied (some objects already exist)")
	}

	fmt.Println("Migration completed successfully!")
}
