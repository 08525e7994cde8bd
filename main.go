package main

import (
	"fmt"
	"log"
	"time"

	"github.com/uchikuch/restaurant-pos-system/configs"
	"github.com/uchikuch/restaurant-pos-system/middlewares"
	"github.com/uchikuch/restaurant-pos-system/repository"
	"github.com/uchikuch/restaurant-pos-system/routes"
	"github.com/uchikuch/restaurant-pos-system/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := configs.LoadConfig()

	// DB
	configs.ConnectionDB(cfg.DBSource)
	db := configs.DB()

	// migrate + seed
	configs.SetupDatabase()
	if err := configs.SeedAdmin(); err != nil {
		log.Fatalf("seed admin failed: %v", err)
	}
	if err := configs.SeedMenu(); err != nil {
		log.Fatalf("seed menu failed: %v", err)
	}

	// WebSocket hub
	hub := ws.NewOrderHub()
	go hub.Run()

	// Expired guest carts are swept in the background.
	cartRepo := repository.NewCartRepository(db)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := cartRepo.DeleteExpired(time.Now()); err != nil {
				log.Printf("cart sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("cart sweep removed %d carts", n)
			}
		}
	}()

	// HTTP
	r := gin.Default()
	r.Use(middlewares.CORSMiddleware())
	routes.RegisterRoutes(r, db, cfg, hub)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Println("server running at", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
