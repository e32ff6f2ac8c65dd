package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/database"
	"github.com/arenahq/arena/backend/internal/models"
)

// Seeds a development database with an admin, a few players and a live
// tournament so the review queues have something to show.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config:", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("open database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.Match{},
		&models.SecurityEvent{},
		&models.ScreenshotVerification{},
		&models.FlaggedAccount{},
		&models.FlagReview{},
		&models.RelatedAccount{},
		&models.Notification{},
	); err != nil {
		log.Fatal("migrate database:", err)
	}

	admin := models.User{
		UUID:     uuid.NewString(),
		Email:    "admin@arena.local",
		GamerTag: "admin",
		Role:     "admin",
		IsActive: true,
	}
	if err := admin.SetPassword("admin12345"); err != nil {
		log.Fatal("hash password:", err)
	}
	db.Where(models.User{Email: admin.Email}).FirstOrCreate(&admin)

	players := []string{"viper", "ghost", "raptor"}
	for i, tag := range players {
		player := models.User{
			UUID:          uuid.NewString(),
			Email:         fmt.Sprintf("%s@arena.local", tag),
			GamerTag:      tag,
			Role:          "player",
			IsActive:      true,
			WalletBalance: int64((i + 1) * 10000),
		}
		if err := player.SetPassword("player12345"); err != nil {
			log.Fatal("hash password:", err)
		}
		db.Where(models.User{Email: player.Email}).FirstOrCreate(&player)
	}

	tournament := models.Tournament{
		UUID:      uuid.NewString(),
		Name:      "Weekend Clash",
		GameType:  "bgmi",
		EntryFee:  5000,
		PrizePool: 500000,
		Status:    models.TournamentLive,
		StartsAt:  time.Now().Add(-time.Hour),
	}
	db.Where(models.Tournament{Name: tournament.Name}).FirstOrCreate(&tournament)

	match := models.Match{
		UUID:           uuid.NewString(),
		TournamentUUID: tournament.UUID,
		GameType:       tournament.GameType,
		Status:         models.MatchLive,
		ScheduledAt:    time.Now(),
	}
	db.Where(models.Match{TournamentUUID: tournament.UUID}).FirstOrCreate(&match)

	fmt.Println("✓ Seed data created")
	fmt.Printf("  admin login: %s / admin12345\n", admin.Email)
	fmt.Printf("  match uuid:  %s\n", match.UUID)
}
