package api

import (
	s "go-chat-relay/internal/storage"
	ws "go-chat-relay/internal/websocket"

	"github.com/gin-gonic/gin"
)

func Serve(port string) error {
	r := gin.Default()

	db, err := s.Connect()
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	registry := ws.NewRegistry()
	dispatcher := ws.NewMessageHandler(db, hub, registry)

	router := NewRouter(db, hub, registry, dispatcher)
	router.RegisterRoutes(r)

	return r.Run(port)
}
