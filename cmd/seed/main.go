package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"dropapp/internal/config"
	"dropapp/internal/database"
	"dropapp/internal/domain/generation"
	"dropapp/internal/pkg/logger"
)

// Seeds a local SQLite database and upload directory with generations of
// different ages and plans, for trying the cleanup without Supabase.
func main() {
	log := logger.New(os.Stdout, "info", "text")
	_ = godotenv.Load(".env.local")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "dropapp.db"
	}
	dir := os.Getenv("LOCAL_STORAGE_DIR")
	if dir == "" {
		dir = "./uploads"
	}
	marker := assetMarker()

	db, err := database.Connect(dsn, log)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}

	log.Info("Running AutoMigrate...")
	if err := db.AutoMigrate(&generation.Profile{}, &generation.Generation{}); err != nil {
		log.Fatal("AutoMigrate failed: ", err)
	}

	log.Info("Cleaning old data...")
	db.Exec("DELETE FROM generations")
	db.Exec("DELETE FROM profiles")

	now := time.Now().UTC()
	free := generation.Profile{Plan: generation.PlanFree, CreatedAt: now}
	pro := generation.Profile{Plan: generation.PlanPro, CreatedAt: now}
	if err := db.Create(&free).Error; err != nil {
		log.Fatal(err)
	}
	if err := db.Create(&pro).Error; err != nil {
		log.Fatal(err)
	}

	samples := []struct {
		owner generation.Profile
		kind  generation.Kind
		age   time.Duration
	}{
		{free, generation.KindImage, 72 * time.Hour},
		{free, generation.KindImage, 50 * time.Hour},
		{free, generation.KindVideo, 49 * time.Hour},
		{free, generation.KindImage, 3 * time.Hour},
		{pro, generation.KindImage, 96 * time.Hour},
	}

	for i, s := range samples {
		ext := ".png"
		if s.kind == generation.KindVideo {
			ext = ".mp4"
		}
		key := fmt.Sprintf("%s/%d%s", s.owner.ID, i, ext)
		path := filepath.Join(dir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("seed"), 0o644); err != nil {
			log.Fatal(err)
		}

		url := "http://localhost:8080" + marker + key
		g := generation.Generation{
			UserID:    s.owner.ID,
			Kind:      s.kind,
			Status:    generation.StatusCompleted,
			Prompt:    "studio product shot, white background",
			AssetURL:  &url,
			CreatedAt: now.Add(-s.age),
		}
		if err := db.Create(&g).Error; err != nil {
			log.Fatal(err)
		}
	}

	log.Infof("Seed completed: profiles=2 generations=%d dir=%s", len(samples), dir)
}

// assetMarker matches the marker the cleanup derives from the same env.
func assetMarker() string {
	if marker := os.Getenv("STORAGE_URL_MARKER"); marker != "" {
		return marker
	}
	bucket := os.Getenv("STORAGE_BUCKET")
	if bucket == "" {
		bucket = "generated-images"
	}
	return config.DefaultURLMarker(bucket)
}
