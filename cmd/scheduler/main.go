// Command scheduler runs the daily prompt job and reminder sweep without
// serving HTTP. Run exactly one instance.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailybright/internal/config"
	"dailybright/internal/scheduler"
	"dailybright/internal/server"
)

func main() {
	once := len(os.Args) > 1 && os.Args[1] == "once"

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	jobs := scheduler.New(scheduler.ConfigFrom(cfg), srv.DailyPrompts(), srv.DailyStates(), srv.Notifier())

	// "once" runs both jobs immediately and exits, for external cron.
	if once {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := jobs.RunDailyPrompt(ctx); err != nil {
			log.Printf("daily prompt job failed: %v", err)
		}
		sent, err := jobs.RunReminderSweep(ctx)
		if err != nil {
			log.Printf("reminder sweep failed: %v", err)
		}
		log.Printf("reminders sent: %d", sent)
		return
	}

	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Stopping scheduler...")
	jobs.Stop()
}
