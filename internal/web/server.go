package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhinavdhar/creditbook/types"
)

// CreditorService is the slice of the lifecycle service the API needs.
type CreditorService interface {
	Create(name string) (*types.Creditor, error)
	List(filter string) ([]*types.Creditor, error)
	MarkPaid(id string) (*types.Creditor, error)
	Reschedule(id string, followUp time.Time) (*types.Creditor, error)
	Update(id string, upd types.CreditorUpdate) (*types.Creditor, error)
	Delete(id string) error
}

type Server struct {
	service   CreditorService
	router    *gin.Engine
	staticDir string
}

func NewServer(service CreditorService, staticDir string) *Server {
	router := gin.Default()

	s := &Server{
		service:   service,
		router:    router,
		staticDir: staticDir,
	}

	api := router.Group("/api")
	{
		api.GET("/creditors", s.handleList)
		api.POST("/creditors", s.handleCreate)
		api.PUT("/creditors/:id", s.handleUpdate)
		api.DELETE("/creditors/:id", s.handleDelete)
	}

	// Everything outside /api falls back to the single-page front-end.
	router.NoRoute(s.handleStatic)

	return s
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) handleStatic(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if s.staticDir == "" {
		c.Status(http.StatusNotFound)
		return
	}

	file := filepath.Join(s.staticDir, filepath.Clean("/"+path))
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		c.File(file)
		return
	}
	c.File(filepath.Join(s.staticDir, "index.html"))
}
