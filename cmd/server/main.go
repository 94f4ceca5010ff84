// @title           Chmura Plikow API
// @version         1.0
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chmura-plikow/internal/api"
	"chmura-plikow/internal/cache"
	"chmura-plikow/internal/config"
	"chmura-plikow/internal/database"
	"chmura-plikow/internal/hierarchy"
	"chmura-plikow/internal/objectstore"
	"chmura-plikow/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "chmura-plikow/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Nie można wczytać konfiguracji: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Nie można połączyć się z bazą danych: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Nie można pingować bazy danych: %v", err)
	}
	log.Println("Pomyślnie połączono z bazą danych")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Nie można pingować Redisa: %v", err)
	}
	log.Println("Pomyślnie połączono z Redisem")

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(dbpool)
	cacheBackend := cache.NewRedisCache(redisClient)
	objects := objectstore.NewClient(cfg.OSS.ControlServiceURL)
	service := hierarchy.NewService(store, cacheBackend, objects, wsHub)
	server := api.NewServer(cfg, store, service, cacheBackend, objects, wsHub)

	// Sprzątanie osieroconych obiektów OSS działa w tle, poza ścieżką żądań.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := service.ReconcileOrphans(context.Background(), 100); err != nil {
				log.Printf("WARN: Przebieg rozliczania sierot nie powiódł się: %v", err)
			} else if n > 0 {
				log.Printf("Rozliczono %d osieroconych obiektów OSS", n)
			}
		}
	}()

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	// Poza MetricsMiddleware: upgrade WebSocketu potrzebuje gołego
	// ResponseWritera.
	r.Get("/ws", server.ServeWsHandler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Chmura plików działa! Dokumentacja dostępna pod /swagger/index.html"))
	})

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(api.MetricsMiddleware)

		r.Post("/api/v1/auth/register", server.RegisterHandler)
		r.Post("/api/v1/auth/login", server.LoginHandler)
		r.Get("/api/v1/files/download/{key}", server.DownloadFileHandler)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(server.AuthMiddleware)
			r.Get("/me", server.GetCurrentUserHandler)
			r.Get("/me/storage", server.GetStorageUsageHandler)

			r.Get("/nodes", server.ListNodesHandler)
			r.Post("/nodes/folders", server.CreateFolderHandler)
			r.Get("/nodes/search", server.SearchNodesHandler)
			r.Get("/nodes/recent", server.RecentFilesHandler)
			r.Get("/nodes/{nodeId}/path", server.ResolvePathHandler)
			r.Patch("/nodes/{nodeId}", server.UpdateNodeHandler)
			r.Delete("/nodes/{nodeId}", server.SoftDeleteNodeHandler)

			r.Post("/files", server.InsertFileHandler)
			r.Post("/files/online-edit", server.InsertOnlineEditFileHandler)
			r.Get("/files/online-edit/{fileId}", server.GetOnlineEditFileHandler)
			r.Put("/files/online-edit/{fileId}", server.UpdateOnlineEditFileHandler)
			r.Post("/files/{fileId}/download-generate", server.GenerateDownloadKeyHandler)
			r.Get("/files/sts", server.GetSTSHandler)
			r.Get("/files/bucket-stat", server.BucketStatHandler)

			r.Get("/trash", server.ListTrashHandler)
			r.Post("/trash/{nodeId}/restore", server.RestoreNodeHandler)
			r.Delete("/trash/{nodeId}", server.HardDeleteNodeHandler)

			r.Get("/events", server.GetEventsHandler)
		})
	})

	log.Println("Uruchamianie serwera na porcie :8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		log.Fatalf("Nie można uruchomić serwera: %v", err)
	}
}
