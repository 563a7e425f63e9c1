// Command seed fills the database with demo users, friendships and answers.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"dailybright/internal/config"
	"dailybright/internal/database"
	"dailybright/internal/prompt"
	"dailybright/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	days := flag.Int("days", 14, "Days of answer history before today")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	dryRun := flag.Bool("dry-run", false, "Build data without writing it")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d days, clean=%v dry-run=%v\n", *numUsers, *days, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	catalog, err := prompt.LoadCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to load prompt catalog: %v", err)
	}

	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:   *numUsers,
		Days:       *days,
		SkipBcrypt: *fast,
		DryRun:     *dryRun,
		BatchSize:  200,
	})

	if *shouldClean && !*dryRun {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if err := s.Run(catalog, time.Now().UTC()); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
