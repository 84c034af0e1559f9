package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"gopress/adapters/excel"
	"gopress/domain/core"
	"gopress/domain/run"
	"gopress/internal/errors"
	"gopress/internal/report"
	"gopress/ports"

	"github.com/gin-gonic/gin"
)

// handleIndex shows the dialog in its initial state
func (s *Server) handleIndex(c *gin.Context) {
	dialog, err := s.service.NewSelector(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	view := newDialogView(dialog)
	view.Simulations = s.simulations(c)
	s.renderTemplate(c, http.StatusOK, "dialog.html", view)
}

// handleUpdate applies the submitted dialog, tallies it and redraws the
// dialog with the plot underneath
func (s *Server) handleUpdate(c *gin.Context) {
	dialog, err := s.service.NewSelector(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.renderError(c, errors.InvalidInput(err.Error()))
		return
	}

	decodeErr := dialog.DecodeForm(c.Request.PostForm)
	view := newDialogView(dialog)
	view.Simulations = s.simulations(c)
	if decodeErr != nil {
		view.Error = decodeErr.Error()
		s.renderTemplate(c, errors.HTTPStatus(decodeErr), "dialog.html", view)
		return
	}

	tr, err := s.service.Run(c.Request.Context(), dialog.Selection())
	if err != nil {
		view.Error = err.Error()
		s.renderTemplate(c, errors.HTTPStatus(err), "dialog.html", view)
		return
	}
	view.Run = tr
	if view.Plot, view.TextPlot, err = plots(tr); err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "dialog.html", view)
}

type reportView struct {
	Run  *run.TallyRun
	Body template.HTML
	Plot template.HTML
}

// handleReport shows a stored run as an HTML report
func (s *Server) handleReport(c *gin.Context) {
	tr, ok := s.loadRun(c)
	if !ok {
		return
	}
	plot, _, err := plots(tr)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "report.html", reportView{
		Run:  tr,
		Body: template.HTML(report.HTML(tr)),
		Plot: plot,
	})
}

// handleWorkbook downloads a stored run as an Excel workbook with a
// stacked bar chart. Runs with no consistent simulations have nothing to
// export.
func (s *Server) handleWorkbook(c *gin.Context) {
	tr, ok := s.loadRun(c)
	if !ok {
		return
	}
	if tr.Empty() {
		c.Status(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("Outcomes of %d consistent simulations", tr.Consistent)
	if err := excel.NewBarplotWorkbook(title).RenderBarplot(&buf, tr.Table, tr.Nodes, ports.DefaultBarColors); err != nil {
		s.renderError(c, errors.RenderError("workbook export failed", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="tally-%s.xlsx"`, tr.ID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) loadRun(c *gin.Context) (*run.TallyRun, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		s.renderError(c, errors.InvalidInput(err.Error()))
		return nil, false
	}
	tr, err := s.service.Get(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return nil, false
	}
	return tr, true
}

func (s *Server) simulations(c *gin.Context) int {
	ens, err := s.service.Ensemble(c.Request.Context())
	if err != nil {
		return 0
	}
	return ens.Size()
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[UI] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

// plots renders the run as inline SVG and as text. Both are empty when no
// simulation was consistent.
func plots(tr *run.TallyRun) (template.HTML, string, error) {
	var svg, text bytes.Buffer
	if err := (report.SVGBarplot{}).RenderBarplot(&svg, tr.Table, tr.Nodes, ports.DefaultBarColors); err != nil {
		return "", "", errors.RenderError("plot failed", err)
	}
	if err := (report.TextBarplot{Width: 40}).RenderBarplot(&text, tr.Table, tr.Nodes, ports.DefaultBarColors); err != nil {
		return "", "", errors.RenderError("plot failed", err)
	}
	return template.HTML(svg.String()), text.String(), nil
}
