// Package fakerest serves an in-memory collection store over the simple REST
// dialect. It backs the end-to-end tests and the "restprov serve" command.
package fakerest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// Server exposes a Store over HTTP.
type Server struct {
	engine *gin.Engine
	store  *Store
	logger provider.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger provider.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server for store.
func NewServer(store *Store, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		engine: gin.New(),
		store:  store,
		logger: provider.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.engine.Use(server.recovery(), requestID(), exposeHeaders(), server.requestLogger())

	server.engine.GET("/:resource", server.list)
	server.engine.POST("/:resource", server.create)
	server.engine.GET("/:resource/:id", server.get)
	server.engine.PUT("/:resource/:id", server.update)
	server.engine.DELETE("/:resource/:id", server.remove)

	return server
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
// ready, if non-nil, receives the bound address once listening.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}

	s.logger.Info("Starting fake REST server", map[string]interface{}{
		"addr":      listener.Addr().String(),
		"resources": s.store.Resources(),
	})

	if ready != nil {
		ready(listener.Addr())
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down fake REST server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	return nil
}

func (s *Server) list(c *gin.Context) {
	resource := c.Param("resource")

	query, err := ParseQuery(c.Request.URL.Query())
	if err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())

		return
	}

	records, total, start := s.store.List(resource, query)

	c.Header(constants.HeaderContentRange, contentRange(resource, start, len(records), total))
	c.Header(constants.HeaderTotalCount, strconv.Itoa(total))
	c.JSON(http.StatusOK, records)
}

func (s *Server) get(c *gin.Context) {
	record, ok := s.store.Get(c.Param("resource"), c.Param("id"))
	if !ok {
		abortWithMessage(c, http.StatusNotFound, constants.ErrRecordNotFound.Error())

		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) create(c *gin.Context) {
	record, err := decodeRecord(c)
	if err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())

		return
	}

	c.JSON(http.StatusCreated, s.store.Create(c.Param("resource"), record))
}

func (s *Server) update(c *gin.Context) {
	changes, err := decodeRecord(c)
	if err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())

		return
	}

	record, ok := s.store.Update(c.Param("resource"), c.Param("id"), changes)
	if !ok {
		abortWithMessage(c, http.StatusNotFound, constants.ErrRecordNotFound.Error())

		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) remove(c *gin.Context) {
	record, ok := s.store.Delete(c.Param("resource"), c.Param("id"))
	if !ok {
		abortWithMessage(c, http.StatusNotFound, constants.ErrRecordNotFound.Error())

		return
	}

	c.JSON(http.StatusOK, record)
}

// contentRange renders "{resource} {start}-{end}/{total}", or
// "{resource} */{total}" for an empty page.
func contentRange(resource string, start, count, total int) string {
	if count == 0 {
		return fmt.Sprintf("%s */%d", resource, total)
	}

	return fmt.Sprintf("%s %d-%d/%d", resource, start, start+count-1, total)
}

func decodeRecord(c *gin.Context) (provider.Record, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var record provider.Record

	err = decoder.Decode(&record)
	if err != nil || record == nil {
		return nil, constants.ErrInvalidJSONObject
	}

	return record, nil
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// exposeHeaders lets cross-origin callers read the pagination headers and
// answers preflight requests.
func exposeHeaders() gin.HandlerFunc {
	exposed := strings.Join([]string{constants.HeaderContentRange, constants.HeaderTotalCount, constants.HeaderRequestID}, ", ")

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Range, Authorization, "+constants.HeaderRequestID)
		}

		c.Header(constants.HeaderExposeHeaders, exposed)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)

			return
		}

		c.Next()
	}
}

// requestID echoes or assigns X-Request-Id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set("request_id", id)
		c.Header(constants.HeaderRequestID, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetString("request_id"),
		}

		if rng := c.GetHeader(constants.HeaderRange); rng != "" {
			fields["range"] = rng
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.logger.Error("Request failed", fields)
		case c.Writer.Status() >= http.StatusBadRequest:
			s.logger.Warn("Request rejected", fields)
		default:
			s.logger.Debug("Request handled", fields)
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic recovered", map[string]interface{}{
					"error":  fmt.Sprintf("%v", err),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
				abortWithMessage(c, http.StatusInternalServerError, "internal server error")
			}
		}()

		c.Next()
	}
}
