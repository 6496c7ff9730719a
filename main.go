package main

import (
	"time"

	"github.com/pixpointrepo/marcom-backend/config"
	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/routes"
	"github.com/pixpointrepo/marcom-backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.Article{},
		&models.Category{},
		&models.PageView{},
		&models.FormEntry{},
		&models.AdminUser{},
	)

	r := routes.SetupRouter(db)

	// Background sweep for thumbnail files no longer referenced by any article
	utils.StartThumbnailSweeper(time.Duration(cfg.UploadSweepIntervalMin) * time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
