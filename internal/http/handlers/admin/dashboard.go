package admin

import (
	"strconv"
	"time"

	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/service"

	"github.com/gin-gonic/gin"
)

func dashboardQueryInput(c *gin.Context) service.DashboardQueryInput {
	input := service.DashboardQueryInput{
		Range:        c.DefaultQuery("range", "7d"),
		ForceRefresh: c.Query("force_refresh") == "true",
	}
	if v, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		input.From = &v
	}
	if v, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		input.To = &v
	}
	return input
}

// DashboardOverview 仪表盘总览
func (h *Handler) DashboardOverview(c *gin.Context) {
	overview, err := h.DashboardService.GetOverview(c.Request.Context(), dashboardQueryInput(c))
	if err != nil {
		respondError(c, response.CodeBadRequest, "failed to load dashboard overview", err)
		return
	}
	response.Success(c, overview)
}

// DashboardTrend 预订与营收趋势
func (h *Handler) DashboardTrend(c *gin.Context) {
	trend, err := h.DashboardService.GetTrend(c.Request.Context(), dashboardQueryInput(c))
	if err != nil {
		respondError(c, response.CodeBadRequest, "failed to load dashboard trend", err)
		return
	}
	response.Success(c, trend)
}

// DashboardRankings 热门课程排行
func (h *Handler) DashboardRankings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	rankings, err := h.DashboardService.GetRankings(c.Request.Context(), dashboardQueryInput(c), limit)
	if err != nil {
		respondError(c, response.CodeBadRequest, "failed to load dashboard rankings", err)
		return
	}
	response.Success(c, rankings)
}
