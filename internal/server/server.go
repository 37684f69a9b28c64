package server

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/labelcheck/internal/config"
	"github.com/agenthands/labelcheck/internal/core"
	"github.com/agenthands/labelcheck/internal/core/batch"
	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/schema"
)

type Server struct {
	Verifier *core.Verifier
	Runner   *batch.Runner
	Schema   *schema.Schema
	Config   config.ServerConfig
	Logger   *zap.Logger
}

func NewServer(cfg config.ServerConfig, verifier *core.Verifier, runner *batch.Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Verifier: verifier,
		Runner:   runner,
		Schema:   verifier.Schema,
		Config:   cfg,
		Logger:   logger,
	}
}

func (s *Server) maxUploadBytes() int64 {
	return s.Config.MaxUploadMB << 20
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.maxUploadBytes()
	r.Use(RequestLogger(s.Logger), Recovery(s.Logger), CORS(s.Config.FrontendURL))

	r.GET("/healthz", s.Health)

	api := r.Group("/api")
	api.GET("/schema", s.GetSchema)
	api.POST("/override", s.Override)

	uploads := api.Group("", LimitBody(s.maxUploadBytes()))
	uploads.POST("/verify", s.Verify)
	uploads.POST("/verify-batch", s.VerifyBatch)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SchemaResponse struct {
	Version     string             `json:"version"`
	Description string             `json:"description"`
	Fields      []schema.FieldSpec `json:"fields"`
}

func (s *Server) GetSchema(c *gin.Context) {
	c.JSON(http.StatusOK, SchemaResponse{
		Version:     s.Schema.Version(),
		Description: s.Schema.Description(),
		Fields:      s.Schema.Fields(),
	})
}

// respondError writes the status and caller-safe message for err.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindOracleTimeout:
		status = http.StatusGatewayTimeout
	}
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", errs.KindOf(err).String()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"message": errs.Message(err)})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	s.respondError(c, errs.Validation(c.FullPath(), msg))
}

func (s *Server) uploadTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"message": "Upload exceeds the " + humanize.IBytes(uint64(s.maxUploadBytes())) + " limit.",
	})
}
