package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"quicker-admin/config"
	"quicker-admin/database"
	"quicker-admin/models/backup"
	backupService "quicker-admin/services/backup"
	"quicker-admin/services/credential"
	"quicker-admin/services/lockout"
	"quicker-admin/services/stats"
	"quicker-admin/utils"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run tools/jobs.go migrate                 - Apply schema migrations")
	fmt.Println("  go run tools/jobs.go daily-stats [date]      - Snapshot statistics for a day (default yesterday)")
	fmt.Println("  go run tools/jobs.go backup <frequency>      - Run scheduled backups (daily|weekly|monthly)")
	fmt.Println("  go run tools/jobs.go cleanup-backups         - Delete automatic backups past retention")
	fmt.Println("  go run tools/jobs.go unlock <username>       - Clear an admin lockout")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		fmt.Printf("❌ Database unavailable: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "migrate":
		// InitDB has already migrated.
		fmt.Println("✅ Migration completed successfully!")

	case "daily-stats":
		day := time.Now().UTC().AddDate(0, 0, -1)
		if len(os.Args) > 2 {
			if day, err = utils.ParseDate("date", os.Args[2]); err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}
		}
		snap, err := stats.NewService(db).CalculateDailyStats(ctx, day)
		if err != nil {
			fmt.Printf("❌ Failed to calculate daily stats: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Stats for %s: %d members, %d new, %d API calls\n", snap.Date, snap.TotalMembers, snap.NewMembers, snap.APICalls)

	case "backup":
		if len(os.Args) < 3 {
			fmt.Println("Please provide a frequency: daily, weekly or monthly")
			return
		}
		svc, err := backupService.NewService(db, cfg.BackupDir)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		b, err := svc.RunScheduled(ctx, backup.Frequency(os.Args[2]))
		if err != nil {
			fmt.Printf("❌ Backup failed: %v\n", err)
			os.Exit(1)
		}
		if b == nil {
			fmt.Printf("ℹ️ No active %s schedule, nothing to do\n", os.Args[2])
			return
		}
		fmt.Printf("✅ Created %s (%d bytes)\n", b.Filename, b.Size)

	case "cleanup-backups":
		svc, err := backupService.NewService(db, cfg.BackupDir)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		removed, err := svc.CleanupOldBackups(ctx)
		if err != nil {
			fmt.Printf("❌ Cleanup failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Removed %d expired backups\n", removed)

	case "unlock":
		if len(os.Args) < 3 {
			fmt.Println("Please provide the admin username")
			return
		}
		guard := lockout.NewGuard(db, credential.NewStore(db), lockout.Policy{
			MaxAttempts:  cfg.LoginMaxAttempts,
			LockDuration: cfg.LoginLockDuration,
		})
		if err := guard.Unlock(ctx, os.Args[2]); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ %s unlocked\n", os.Args[2])

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
	}
}
