package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"gopress/app"
	"gopress/internal"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Server is the node selector web dialog
type Server struct {
	router    *gin.Engine
	service   *app.TallyService
	templates *template.Template
	logger    *internal.Logger
}

// NewServer builds the gin engine. api, when non-nil, is mounted under /api.
func NewServer(service *app.TallyService, api http.Handler) (*Server, error) {
	funcMap := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", 100*v) },
		"add": func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		templates: templates,
		logger:    internal.DefaultLogger,
	}
	s.setupMiddleware()
	s.setupRoutes(api)
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes(api http.Handler) {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/update", s.handleUpdate)
	s.router.GET("/report/:id", s.handleReport)
	s.router.GET("/report/:id/workbook", s.handleWorkbook)

	if api != nil {
		s.router.Any("/api/*path", gin.WrapH(http.StripPrefix("/api", api)))
	}
}

// Handler returns the server as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}
