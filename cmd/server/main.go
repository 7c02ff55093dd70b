package main

import (
	"log"
	"os"

	"go-chat-relay/internal/api"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("listening on :%s", port)
	if err := api.Serve(":" + port); err != nil {
		log.Fatal(err)
	}
}
