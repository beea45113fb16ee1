package controller

import (
	"errors"
	"strconv"
	"time"

	"llm_tutor_backend/internal/service"
	"llm_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatisticsController struct {
	StatisticsService *service.StatisticsService
}

func NewStatisticsController(statisticsService *service.StatisticsService) *StatisticsController {
	return &StatisticsController{StatisticsService: statisticsService}
}

// @Summary 获取学习统计
// @Description 按周期（daily/weekly/monthly/all）汇总平均分、时长、提示数、主题分布与成绩趋势
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param period query string false "统计周期" default(weekly)
// @Success 200 {object} util.Response
// @Router /api/progress/statistics [get]
func (c *StatisticsController) GetStatistics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	period := service.Period(ctx.DefaultQuery("period", string(service.PeriodWeekly)))
	switch period {
	case service.PeriodDaily, service.PeriodWeekly, service.PeriodMonthly, service.PeriodAll:
	default:
		util.BadRequest(ctx, "period must be one of daily, weekly, monthly, all")
		return
	}

	stats, err := c.StatisticsService.GetStatistics(user.UserID, period)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary 获取进度快照历史
// @Description 按日升序返回每日快照，支持 days=N 或 start/end 日期区间
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param days query int false "最近天数" default(30)
// @Param start query string false "起始日期 2006-01-02"
// @Param end query string false "结束日期 2006-01-02"
// @Success 200 {object} util.Response
// @Router /api/progress/history [get]
func (c *StatisticsController) GetHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var query service.HistoryQuery

	startStr := ctx.Query("start")
	endStr := ctx.Query("end")
	if startStr != "" || endStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			util.BadRequest(ctx, "invalid start date, expected 2006-01-02")
			return
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			util.BadRequest(ctx, "invalid end date, expected 2006-01-02")
			return
		}
		query.StartDate = &start
		query.EndDate = &end
	} else {
		days, _ := strconv.Atoi(ctx.DefaultQuery("days", "30"))
		query.Days = days
	}

	snapshots, err := c.StatisticsService.GetHistory(user.UserID, query)
	if err != nil {
		if errors.Is(err, util.ErrInvalidRange) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, snapshots)
}
