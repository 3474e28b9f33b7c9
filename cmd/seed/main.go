package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"leadcompass/internal/config"
	"leadcompass/internal/database"
	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/lead"
	"leadcompass/internal/domain/profile"
	"leadcompass/internal/pkg/apperr"
	"leadcompass/internal/pkg/logger"
)

func main() {
	demo := flag.Bool("demo", false, "also create two employees and sample leads")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not read .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	appLog := logger.New(cfg.LogLevel).With("cmd", "seed")

	db, err := database.Connect(cfg.DatabaseURL, appLog, cfg.DBLogSQL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	profiles := profile.NewService(profile.NewRepository(db), appLog)

	name := envOr("SEED_CEO_NAME", "Administrator")
	email := envOr("SEED_CEO_EMAIL", "ceo@leadcompass.local")
	password := os.Getenv("SEED_CEO_PASSWORD")
	if password == "" {
		if config.IsProdLike(cfg.AppEnv) {
			log.Fatal("SEED_CEO_PASSWORD is required outside dev")
		}
		password = "change-me-now"
	}

	ceo, created, err := profiles.EnsureCEO(ctx, name, email, password)
	if err != nil {
		log.Fatalf("create CEO: %v", err)
	}
	if created {
		log.Printf("CEO account created: %s", ceo.Email)
	} else {
		log.Println("CEO account already exists, skipping")
	}

	if !*demo {
		return
	}

	sess := &access.Session{Name: "seed", Role: access.RoleCEO}
	employees := []string{"Ravi Kumar", "Priya Nair"}
	for i, n := range employees {
		_, err := profiles.Create(ctx, sess, profile.CreateRequest{
			Name:     n,
			Email:    fmt.Sprintf("employee%d@leadcompass.local", i+1),
			Password: "employee123",
			Role:     access.RoleEmployee,
		})
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			log.Printf("employee %s skipped: %v", n, err)
		} else if err != nil {
			log.Fatalf("create employee %s: %v", n, err)
		}
	}

	repo := lead.NewRepository(lead.NewGormStore(db, nil), lead.Options{Logger: appLog})
	res, err := repo.BulkCreate(ctx, sess, sampleLeads(employees))
	if err != nil {
		log.Fatalf("seed leads: %v", err)
	}
	log.Printf("seeded %d leads", res.Inserted)
}

func sampleLeads(assignees []string) []lead.Fields {
	areas := []string{"Baner", "Wakad", "Hinjewadi", "Kharadi", "Viman Nagar"}
	statuses := lead.DealStatuses
	interests := lead.InterestLevels
	today := time.Now()

	out := make([]lead.Fields, 0, 20)
	for i := 0; i < 20; i++ {
		out = append(out, lead.Fields{
			CustomerName:     fmt.Sprintf("Customer %02d", i+1),
			Email:            fmt.Sprintf("customer%02d@example.com", i+1),
			MobileNumber:     fmt.Sprintf("98%08d", i+1),
			ProjectName:      "Skyline Residences",
			Budget:           float64(2500000 + i*250000),
			PreferredArea:    areas[i%len(areas)],
			PropertyType:     lead.PropertyTypes[i%len(lead.PropertyTypes)],
			TeamLeader:       "Administrator",
			AssignedTo:       assignees[i%len(assignees)],
			DealStatus:       statuses[i%len(statuses)],
			InterestLevel:    interests[i%len(interests)],
			SiteVisitDone:    i%3 == 0,
			NextFollowupDate: today.AddDate(0, 0, i%4).Format(lead.DateLayout),
		})
	}
	return out
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
