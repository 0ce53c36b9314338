package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/recwire/internal/protocol"
	"github.com/danmuck/recwire/internal/protocol/frame"
	"github.com/danmuck/recwire/internal/record"
	"github.com/danmuck/recwire/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SchemeHeader names the wire scheme of an octet-stream body.
const SchemeHeader = "X-Recwire-Scheme"

type fieldInfo struct {
	ID       int16  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Presence string `json:"presence"`
}

type typeInfo struct {
	Name   string      `json:"name"`
	Fields []fieldInfo `json:"fields"`
}

type recordView struct {
	Type   string         `json:"type"`
	Key    string         `json:"key,omitempty"`
	Fields map[string]any `json:"fields"`
	Render string         `json:"render"`
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": "recwire",
			"driver":  s.store.Driver(),
			"scheme":  s.scheme.String(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/types", s.listTypes)
	v1.GET("/records/:type", s.listRecords)
	v1.POST("/records/:type", s.createRecord)
	v1.PUT("/records/:type/:key", s.putRecord)
	v1.GET("/records/:type/:key", s.getRecord)
	v1.GET("/records/:type/:key/wire", s.getWire)
	v1.DELETE("/records/:type/:key", s.deleteRecord)
	v1.POST("/decode/:type", s.decode)
}

func (s *Server) listTypes(c *gin.Context) {
	names := s.types.Names()
	out := make([]typeInfo, 0, len(names))
	for _, name := range names {
		desc, _ := s.types.Lookup(name)
		info := typeInfo{Name: name}
		for _, fd := range desc.Fields() {
			info.Fields = append(info.Fields, fieldInfo{
				ID:       fd.ID,
				Name:     fd.Name,
				Type:     fd.Type.String(),
				Presence: fd.Presence.String(),
			})
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"types": out})
}

func (s *Server) listRecords(c *gin.Context) {
	typeName := c.Param("type")
	if _, ok := s.types.Lookup(typeName); !ok {
		respondError(c, store.ErrUnknownType)
		return
	}
	keys, err := s.store.List(c.Request.Context(), typeName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": typeName, "keys": keys})
}

func (s *Server) createRecord(c *gin.Context) {
	rec, ok := s.bindRecord(c)
	if !ok {
		return
	}
	key, err := s.store.Create(c.Request.Context(), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view(rec, key))
}

func (s *Server) putRecord(c *gin.Context) {
	rec, ok := s.bindRecord(c)
	if !ok {
		return
	}
	key := c.Param("key")
	if err := s.store.Put(c.Request.Context(), key, rec); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view(rec, key))
}

func (s *Server) getRecord(c *gin.Context) {
	key := c.Param("key")
	rec, err := s.store.Get(c.Request.Context(), c.Param("type"), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view(rec, key))
}

// getWire returns the stored record re-encoded in the requested scheme.
func (s *Server) getWire(c *gin.Context) {
	scheme, ok := s.queryScheme(c)
	if !ok {
		return
	}
	rec, err := s.store.Get(c.Request.Context(), c.Param("type"), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := record.Marshal(rec, scheme)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header(SchemeHeader, scheme.String())
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) deleteRecord(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("type"), c.Param("key")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// decode turns raw wire bytes into JSON without storing them.
func (s *Server) decode(c *gin.Context) {
	desc, ok := s.types.Lookup(c.Param("type"))
	if !ok {
		respondError(c, store.ErrUnknownType)
		return
	}
	scheme, ok := s.queryScheme(c)
	if !ok {
		return
	}
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	rec, err := record.UnmarshalWithLimits(body, desc, scheme, s.limits)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view(rec, ""))
}

func (s *Server) bindRecord(c *gin.Context) (*record.Record, bool) {
	desc, ok := s.types.Lookup(c.Param("type"))
	if !ok {
		respondError(c, store.ErrUnknownType)
		return nil, false
	}
	body, ok := s.readBody(c)
	if !ok {
		return nil, false
	}
	rec, err := record.ParseJSON(desc, body)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if err := rec.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return nil, false
	}
	return rec, true
}

// readBody reads the request body up to maxBody bytes, answering 413 past it.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return body, true
}

func (s *Server) queryScheme(c *gin.Context) (record.Scheme, bool) {
	raw := c.Query("scheme")
	if raw == "" {
		return s.scheme, true
	}
	scheme, err := record.ParseScheme(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return scheme, true
}

func view(rec *record.Record, key string) recordView {
	return recordView{
		Type:   rec.TypeName(),
		Key:    key,
		Fields: rec.ToMap(),
		Render: rec.String(),
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var (
		missing   record.MissingRequiredFieldError
		malformed *protocol.MalformedError
		syntax    *json.SyntaxError
		jsonType  *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrUnknownType):
		return http.StatusNotFound
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	case errors.As(err, &malformed), errors.As(err, &syntax), errors.As(err, &jsonType),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, record.ErrValueType), errors.Is(err, record.ErrUnknownField),
		errors.Is(err, store.ErrInvalidKey), errors.Is(err, frame.ErrTruncated):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
