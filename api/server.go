// Package api exposes persisted evaluation runs over HTTP: run history,
// per-item results, and the provider leaderboard.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/vfbench/internal/config"
	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/store"
)

type Server struct {
	router *gin.Engine
	store  store.Store
	config *config.Config
	groups []dataset.QuestionGroup
}

// NewServer builds the HTTP surface over the run store. groups is the
// currently configured benchmark, served read-only for inspection.
func NewServer(cfg *config.Config, st store.Store, groups []dataset.QuestionGroup) (*Server, error) {
	r := gin.New()
	s := &Server{
		router: r,
		store:  st,
		config: cfg,
		groups: groups,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
