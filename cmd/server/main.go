package main

import (
	_ "github.com/sentinel-voice/sentinel/docs"
	"github.com/sentinel-voice/sentinel/internal/bootstrap"
)

// @title Sentinel STT API
// @version 1.0.0
// @description Streaming and batch speech-to-text service

// @host localhost:8080
// @BasePath /

func main() {
	bootstrap.Run()
}
