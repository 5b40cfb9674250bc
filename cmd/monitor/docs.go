package main

//go:generate swag init -g cmd/monitor/main.go -o docs

// @title           Fundwatch API
// @version         0.1.0
// @description     Bitcoin crowdfunding monitor: gateway webhook ingestion, tiered campaign sources, and funding analytics.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
