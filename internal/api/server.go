package api

import (
	"chmura-plikow/internal/cache"
	"chmura-plikow/internal/config"
	"chmura-plikow/internal/database"
	"chmura-plikow/internal/hierarchy"
	"chmura-plikow/internal/objectstore"
	"chmura-plikow/internal/websocket"
)

type Server struct {
	config  *config.Config
	store   *database.Store
	service *hierarchy.Service
	cache   cache.Backend
	objects *objectstore.Client
	wsHub   *websocket.Hub
}

func NewServer(cfg *config.Config, store *database.Store, service *hierarchy.Service, cacheBackend cache.Backend, objects *objectstore.Client, wsHub *websocket.Hub) *Server {
	return &Server{
		config:  cfg,
		store:   store,
		service: service,
		cache:   cacheBackend,
		objects: objects,
		wsHub:   wsHub,
	}
}
