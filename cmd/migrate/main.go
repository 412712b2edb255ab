package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"reelchat/config"
	"reelchat/internal/domain/chat"
	"reelchat/internal/domain/notification"
	"reelchat/pkg/database"
)

const usage = `
Reelchat - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Run GORM migrations for all tables
  status      Show database connection and table status

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	switch flag.Arg(0) {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("Running migrations...")

	if err := database.DB.AutoMigrate(
		&chat.Conversation{},
		&chat.Message{},
		&chat.MessageSeen{},
		&chat.MessageLike{},
		&notification.Notification{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func showStatus() {
	log.Println("Checking database status...")

	if err := database.Ping(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	tables := []string{"conversations", "messages", "message_seen", "message_likes", "notifications"}
	migrator := database.DB.Migrator()
	for _, table := range tables {
		if migrator.HasTable(table) {
			log.Printf("Table %-15s exists", table)
		} else {
			log.Printf("Table %-15s does not exist", table)
		}
	}
}
