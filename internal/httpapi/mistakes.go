package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathtutor/internal/mistakes"
)

func (s *Server) addMistake(c *gin.Context) {
	var rec mistakes.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, fmt.Errorf("invalid body: %w", err))
		return
	}
	rec.ID = ""
	rec.SessionID = sessionID(c)
	rec.OccurredAt = time.Time{}

	saved, err := s.mistakes.Add(c.Request.Context(), rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func queryDays(c *gin.Context, def int) (int, bool) {
	v := strings.TrimSpace(c.Query("days"))
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		badRequest(c, errors.New("days must be a non-negative integer"))
		return 0, false
	}
	return n, true
}

func (s *Server) listMistakes(c *gin.Context) {
	days, ok := queryDays(c, 0)
	if !ok {
		return
	}
	records, err := s.mistakes.List(c.Request.Context(), sessionID(c), mistakes.Filter{
		TopicID: strings.TrimSpace(c.Query("topic")),
		Days:    days,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mistakes": records, "count": len(records)})
}

func (s *Server) mistakeStats(c *gin.Context) {
	days, ok := queryDays(c, 7)
	if !ok {
		return
	}
	records, err := s.mistakes.List(c.Request.Context(), sessionID(c), mistakes.Filter{
		TopicID: strings.TrimSpace(c.Query("topic")),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mistakes.Summarize(records, days, s.mistakes.Now()))
}

func (s *Server) deleteMistake(c *gin.Context) {
	if err := s.mistakes.Delete(c.Request.Context(), sessionID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearMistakes(c *gin.Context) {
	n, err := s.mistakes.Clear(c.Request.Context(), sessionID(c), strings.TrimSpace(c.Query("topic")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
