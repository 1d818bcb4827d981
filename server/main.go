package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

// Config carries the server settings, read from the environment with an
// optional .env file.
type Config struct {
	ListenAddr string
	DataDir    string
	DBDir      string
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":1234"),
		DataDir:    getEnv("DATA_DIR", "data"),
		DBDir:      getEnv("DB_DIR", "database"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {
	cfg := loadConfig()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		fmt.Printf("Error: Cannot create data directory %s: %v\n", cfg.DataDir, err)
		os.Exit(1)
	}

	// An empty DB_DIR means run without durable credentials (useful for
	// local experiments); anything else opens the Badger store there.
	var store Store
	if cfg.DBDir == "" {
		store = NewMemoryStore()
		fmt.Println("Using in-memory store (no DB_DIR configured)")
	} else {
		var err error
		store, err = OpenBadgerStore(cfg.DBDir)
		if err != nil {
			fmt.Printf("Error: Cannot open store: %v\n", err)
			os.Exit(1)
		}
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		fmt.Printf("Error: Failed to start server on %s: %v\n", cfg.ListenAddr, err)
		os.Exit(1)
	}

	srv := NewServer(cfg.DataDir, store)

	fmt.Printf("Server is listening on %s\n", cfg.ListenAddr)
	fmt.Println("Press Ctrl+C to stop the server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go srv.Serve(ln)

	<-quit

	fmt.Println("Shutting down...")
	ln.Close()
	if err := store.Close(); err != nil {
		fmt.Printf("Error closing store: %v\n", err)
	}
	fmt.Println("Server stopped.")
}
