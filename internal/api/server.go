// Package api provides the miner's read-only status server, the same
// gin-based shape as the pool's admin API — CORS middleware, a grouped
// route set, a health endpoint — trimmed to the handful of endpoints a
// solo miner actually needs: liveness, run statistics, and upstream
// node health.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/coordinator"
	"github.com/collisionlabs/cminer/internal/util"
)

// Server is the miner's status API.
type Server struct {
	cfg    *config.Config
	coord  *coordinator.Coordinator
	router *gin.Engine
	server *http.Server
}

// statsResponse is the /stats JSON shape.
type statsResponse struct {
	TemplatesFetched  uint64           `json:"templates_fetched"`
	SolutionsFound    uint64           `json:"solutions_found"`
	SolutionsPosted   uint64           `json:"solutions_posted"`
	RoundsStarted     uint64           `json:"rounds_started"`
	CurrentDifficulty uint64           `json:"current_difficulty"`
	Algorithm         config.Algorithm `json:"algorithm"`
	ActiveUpstream    string           `json:"active_upstream"`
	UptimeSeconds     float64          `json:"uptime_seconds"`
}

// NewServer builds the status API around a running coordinator.
func NewServer(cfg *config.Config, coord *coordinator.Coordinator) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{cfg: cfg, coord: coord, router: router}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/stats", s.handleStats)
	s.router.GET("/upstreams", s.handleUpstreams)
}

// Start begins serving in the background. It never blocks the caller,
// matching the pool's own fire-and-forget ListenAndServe goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.cfg.API.Bind,
		Handler: s.router,
	}

	util.Infof("status API listening on %s", s.cfg.API.Bind)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Errorf("status API error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the status API server.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := s.coord.Stats()
	c.JSON(http.StatusOK, statsResponse{
		TemplatesFetched:  stats.TemplatesFetched,
		SolutionsFound:    stats.SolutionsFound,
		SolutionsPosted:   stats.SolutionsPosted,
		RoundsStarted:     stats.RoundsStarted,
		CurrentDifficulty: stats.CurrentDifficulty,
		Algorithm:         stats.Algorithm,
		ActiveUpstream:    stats.ActiveUpstream,
		UptimeSeconds:     time.Since(stats.StartedAt).Seconds(),
	})
}

func (s *Server) handleUpstreams(c *gin.Context) {
	states := s.coord.UpstreamStates()

	healthy := 0
	active := ""
	for _, u := range states {
		if u.Healthy {
			healthy++
		}
		if u.Active {
			active = u.Name
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"upstreams": states,
		"total":     len(states),
		"healthy":   healthy,
		"active":    active,
	})
}
