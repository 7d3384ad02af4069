package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/paquetes/internal/dates"
	"github.com/paquetes/internal/paquete"
	"github.com/paquetes/internal/registry"
	"github.com/paquetes/internal/storage"
	"github.com/paquetes/internal/visualization"
)

const listCacheTTL = 30 * time.Second

// Server exposes the registry over a small REST API so the form UI and
// exports can work against the same rows the CLI manages.
type Server struct {
	reg       *registry.Registry
	vis       *visualization.Visualizer
	listCache *cache.Cache
}

func New(reg *registry.Registry) *Server {
	return &Server{
		reg:       reg,
		vis:       visualization.New(),
		listCache: cache.New(listCacheTTL, time.Minute),
	}
}

// Router builds the gin engine with all API routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.GET("/eventos", s.listEventos)
	api.POST("/eventos", s.createEvento)
	api.PUT("/eventos/:id", s.updateEvento)
	api.DELETE("/eventos/:id", s.deleteEvento)
	api.POST("/eventos/:id/salida", s.markSalida)
	api.POST("/eventos/:id/avanzar", s.avanzarFase)
	api.GET("/eventos/export", s.exportCSV)
	api.GET("/paquetes/:id/reporte", s.reporteHTML)
	api.GET("/municipios", s.listMunicipios)
	api.GET("/config", s.showConfig)

	return r
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func filterFromQuery(c *gin.Context) storage.Filter {
	return storage.Filter{
		IDPaquete:    c.Query("id_paquete"),
		Municipio:    c.Query("municipio"),
		Estado:       strings.ToUpper(c.Query("estado")),
		Zona:         strings.ToUpper(c.Query("zona")),
		FechaEntrada: c.Query("fecha_entrada"),
	}
}

func cacheKey(f storage.Filter) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", f.IDPaquete, f.Municipio, f.Estado, f.Zona, f.FechaEntrada)
}

func (s *Server) listEventos(c *gin.Context) {
	f := filterFromQuery(c)
	key := cacheKey(f)

	if cached, ok := s.listCache.Get(key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	rows, err := s.reg.ListWithKPIs(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.listCache.Set(key, rows, cache.DefaultExpiration)
	c.JSON(http.StatusOK, rows)
}

func (s *Server) createEvento(c *gin.Context) {
	var e paquete.Event
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.reg.Add(&e); err != nil {
		s.writeError(c, err)
		return
	}

	s.listCache.Flush()
	c.JSON(http.StatusCreated, e)
}

func (s *Server) updateEvento(c *gin.Context) {
	var e paquete.Event
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e.ID = c.Param("id")

	if err := s.reg.Update(&e); err != nil {
		s.writeError(c, err)
		return
	}

	s.listCache.Flush()
	c.JSON(http.StatusOK, e)
}

func (s *Server) deleteEvento(c *gin.Context) {
	if err := s.reg.Delete(c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}

	s.listCache.Flush()
	c.Status(http.StatusNoContent)
}

func (s *Server) markSalida(c *gin.Context) {
	var body struct {
		FechaSalida string `json:"fecha_salida"`
	}
	// Empty body means "today"
	_ = c.ShouldBindJSON(&body)

	e, err := s.reg.MarkExit(c.Param("id"), body.FechaSalida)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.listCache.Flush()
	c.JSON(http.StatusOK, e)
}

func (s *Server) avanzarFase(c *gin.Context) {
	e, err := s.reg.Advance(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.listCache.Flush()
	c.JSON(http.StatusCreated, e)
}

func (s *Server) exportCSV(c *gin.Context) {
	rows, err := s.reg.ListWithKPIs(filterFromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="vista_eventos.csv"`)
	if err := registry.WriteCSV(c.Writer, rows); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) reporteHTML(c *gin.Context) {
	idPaquete := c.Param("id")
	rows, err := s.reg.ListWithKPIs(storage.Filter{IDPaquete: idPaquete})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "paquete no encontrado"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(s.vis.GenerateHTMLReport(idPaquete, rows)))
}

func (s *Server) showConfig(c *gin.Context) {
	cal := s.reg.Calendar()
	c.JSON(http.StatusOK, gin.H{
		"jornada_inicio": cal.Schedule.Start(),
		"jornada_fin":    cal.Schedule.End(),
		"horas_diarias":  cal.Schedule.DailyHours(),
		"feriados":       cal.Holidays(),
	})
}

func (s *Server) listMunicipios(c *gin.Context) {
	municipios, err := s.reg.Municipios()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, municipios)
}

// writeError maps registry errors onto HTTP statuses. Only rule violations
// the client can correct become 400; anything unrecognized is a storage or
// internal failure and reports 500.
func (s *Server) writeError(c *gin.Context, err error) {
	var ve *paquete.ValidationError
	switch {
	case errors.Is(err, registry.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrLastFase),
		errors.Is(err, dates.ErrInvalidFormat),
		errors.Is(err, dates.ErrDateOrder),
		errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
