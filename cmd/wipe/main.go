package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Development helper: drops every workflow table so the next server start
// recreates the schema and reseeds system data.
func main() {
	_ = godotenv.Load()

	host := envOr("DB_HOST", "127.0.0.1")
	port := envOr("DB_PORT", "3306")
	user := envOr("DB_USER", "root")
	password := os.Getenv("DB_PASSWORD")
	name := envOr("DB_NAME", "flowgate")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=True", user, password, host, port, name)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to open connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	log.Printf("💣 Wiping workflow tables in '%s'...", name)

	// Reverse dependency order so foreign keys do not block the drops
	tables := []string{
		"workflow_actions",
		"workflow_step_assignments",
		"workflow_instances",
		"workflow_step_transitions",
		"workflow_steps",
		"workflow_templates",
		"users",
		"roles",
	}
	for _, table := range tables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			log.Fatalf("Failed to drop %s: %v", table, err)
		}
		log.Printf("   🗑  Dropped %s", table)
	}

	log.Println("✅ Done. Restart the server to recreate the schema.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
