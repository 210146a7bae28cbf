package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("VFBENCH_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("VFBENCH_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set VFBENCH_API_KEY or set VFBENCH_DISABLE_AUTH=true")
	}

	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/items", s.handleGetRunItems)

	api.GET("/leaderboard", s.handleLeaderboard)

	api.GET("/dataset", s.handleDatasetSummary)
	api.GET("/providers", s.handleListProviders)

	return nil
}
