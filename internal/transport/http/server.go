// Package analysishttp exposes the analysis service over gin.
package analysishttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marginscope/internal/analysis"
	"marginscope/internal/config"
	"marginscope/internal/episode"
	"marginscope/internal/ingest"
	"marginscope/internal/signal"
)

const exportFilename = "trading_analysis_results.csv"

// Server serves uploads, stored runs, exports and chart pages.
type Server struct {
	addr     string
	svc      *analysis.Service
	defaults config.AnalysisConfig
	input    config.InputConfig
	router   *gin.Engine
}

type ServerConfig struct {
	Addr     string
	Service  *analysis.Service
	Defaults config.AnalysisConfig
	Input    config.InputConfig
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("analysis service required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8087"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:     cfg.Addr,
		svc:      cfg.Service,
		defaults: cfg.Defaults,
		input:    cfg.Input,
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.router.Group("/api/analysis")
	api.GET("/profiles", s.handleProfiles)
	api.POST("/upload", s.handleUpload)
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/episodes", s.handleRunEpisodes)
	api.GET("/runs/:id/export", s.handleRunExport)
	api.GET("/runs/:id/charts", s.handleRunCharts)
}

func (s *Server) handleProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": s.svc.Profiles()})
}

func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	params, err := s.uploadParams(c, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	result, err := s.svc.Analyze(c.Request.Context(), file, params)
	if err != nil {
		status, kind := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) uploadParams(c *gin.Context, filename string) (analysis.Params, error) {
	p := analysis.Params{
		Filename:        filename,
		Leverage:        s.defaults.DefaultLeverage,
		Profile:         s.defaults.DefaultProfile,
		Policy:          episode.Policy(s.defaults.DefaultPolicy),
		Gap:             time.Duration(s.defaults.GapSeconds) * time.Second,
		SplitOnSideFlip: s.defaults.SplitOnSideFlip,
		TrackExcursion:  s.defaults.TrackExcursion,
		Mapping: ingest.Mapping{
			Time:     s.input.TimeColumn,
			Signal:   s.input.SignalColumn,
			Price:    s.input.PriceColumn,
			Quantity: s.input.QuantityColumn,
			PnL:      s.input.PnLColumn,
		},
	}
	if d := s.input.Delimiter; d != "" {
		p.Mapping.Delimiter = rune(d[0])
	}
	if raw := c.PostForm("leverage"); raw != "" {
		lev, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return p, errors.New("leverage must be numeric")
		}
		p.Leverage = lev
	}
	if raw := c.PostForm("profile"); raw != "" {
		p.Profile = raw
	}
	if raw := c.PostForm("policy"); raw != "" {
		p.Policy = episode.Policy(raw)
	}
	if raw := c.PostForm("gap_seconds"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return p, errors.New("gap_seconds must be a positive integer")
		}
		p.Gap = time.Duration(secs) * time.Second
	}
	if raw := c.PostForm("split_on_side_flip"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			return p, errors.New("split_on_side_flip must be a boolean")
		}
		p.SplitOnSideFlip = flag
	}
	if raw := c.PostForm("track_excursion"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			return p, errors.New("track_excursion must be a boolean")
		}
		p.TrackExcursion = flag
	}
	if raw := c.PostForm("time_column"); raw != "" {
		p.Mapping.Time = raw
	}
	if raw := c.PostForm("signal_column"); raw != "" {
		p.Mapping.Signal = raw
	}
	if raw := c.PostForm("price_column"); raw != "" {
		p.Mapping.Price = raw
	}
	if raw := c.PostForm("quantity_column"); raw != "" {
		p.Mapping.Quantity = raw
	}
	if raw := c.PostForm("pnl_column"); raw != "" {
		p.Mapping.PnL = raw
	}
	if raw := c.PostForm("delimiter"); raw != "" {
		p.Mapping.Delimiter = rune(raw[0])
	}
	return p, nil
}

func (s *Server) handleRunList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.svc.Runs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, err := s.svc.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(notFoundOr500(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunEpisodes(c *gin.Context) {
	episodes, err := s.svc.Episodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(notFoundOr500(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"episodes": episodes})
}

func (s *Server) handleRunExport(c *gin.Context) {
	data, err := s.svc.ExportCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(notFoundOr500(err), gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(data))
}

func (s *Server) handleRunCharts(c *gin.Context) {
	html, err := s.svc.ChartsHTML(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(notFoundOr500(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// classify maps analysis failures to status codes: rejected
// configuration is the caller's request being wrong, parse failures
// are the uploaded data being wrong.
func classify(err error) (int, string) {
	var cfgErr *episode.ConfigError
	if errors.As(err, &cfgErr) || errors.Is(err, signal.ErrUnknownProfile) {
		return http.StatusBadRequest, "invalid_config"
	}
	var parseErr *ingest.ParseError
	if errors.As(err, &parseErr) || errors.Is(err, ingest.ErrFormat) {
		return http.StatusUnprocessableEntity, "input_format"
	}
	return http.StatusInternalServerError, "internal"
}

func notFoundOr500(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Start runs the HTTP server until ctx is canceled or it fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler { return s.router }
