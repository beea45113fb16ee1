package controller

import (
	"errors"
	"net/http"
	"time"

	"llm_tutor_backend/internal/service"
	"llm_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

type CompleteExerciseRequest struct {
	Topic            string  `json:"topic" binding:"required"`
	Grade            float64 `json:"grade" binding:"min=0,max=100"`
	TimeSpentSeconds int     `json:"timeSpentSeconds" binding:"min=0"`
	HintsUsed        int     `json:"hintsUsed" binding:"min=0"`
	// OccurredOn 事件归属日（RFC3339），缺省为今天
	OccurredOn *time.Time `json:"occurredOn"`
}

// @Summary 上报练习完成事件
// @Description 记录一次练习完成，更新连续打卡、主题技能、成就与当日快照
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CompleteExerciseRequest true "练习完成事件"
// @Success 200 {object} util.Response
// @Router /api/progress/exercises [post]
func (c *ProgressController) CompleteExercise(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CompleteExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.RecordExerciseCompletion(service.CompletionRequest{
		UserID:           user.UserID,
		Topic:            req.Topic,
		Grade:            req.Grade,
		TimeSpentSeconds: req.TimeSpentSeconds,
		HintsUsed:        req.HintsUsed,
		OccurredOn:       req.OccurredOn,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrOutOfOrderEvent), errors.Is(err, util.ErrSnapshotImmutable):
			util.Error(ctx, http.StatusConflict, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取用户进度总览
// @Description 当前连续打卡、累计练习数、各主题技能等级与成就概要
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.ProgressService.GetUserProgress(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}
