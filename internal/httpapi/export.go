package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathtutor/internal/export"
	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/store"
)

// exportWorkbook downloads the session's plan, progress and mistakes as a
// workbook. A session without a plan still gets its mistakes.
func (s *Server) exportWorkbook(c *gin.Context) {
	ctx := c.Request.Context()
	id := sessionID(c)

	p, tasks, err := s.plans.Plan(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.fail(c, err)
		return
	}
	var prog map[string]store.Progress
	if p != nil {
		if prog, err = s.progress.PlanProgress(ctx, p.ID, id); err != nil {
			s.fail(c, err)
			return
		}
	}
	records, err := s.mistakes.List(ctx, id, mistakes.Filter{})
	if err != nil {
		s.fail(c, err)
		return
	}

	f, err := export.Workbook(p, tasks, prog, records)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		s.fail(c, err)
		return
	}

	name := fmt.Sprintf("mathtutor-%s.xlsx", s.now().Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
