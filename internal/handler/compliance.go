package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/tayseer-service/internal/service"
	"github.com/maxviazov/tayseer-service/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ComplianceHandler struct {
	svc service.ComplianceService
}

func NewComplianceHandler(svc service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{svc: svc}
}

func (h *ComplianceHandler) Register(g *gin.RouterGroup) {
	g.GET("/report", h.report)
	g.GET("/report.xlsx", h.reportXLSX)
}

func (h *ComplianceHandler) report(c *gin.Context) {
	r, err := h.svc.Report(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, r)
}

func (h *ComplianceHandler) reportXLSX(c *gin.Context) {
	r, err := h.svc.Report(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	// render fully before writing headers so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := service.WriteReportXLSX(&buf, r); err != nil {
		response.WriteError(c, err)
		return
	}
	name := fmt.Sprintf("compliance_report_%s.xlsx", r.GeneratedAt.Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
