package controller

import (
	"net/http"
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

// 本地上传单个录音的大小上限
const maxLocalUploadBytes = 50 << 20

// RecordingController 讲解录音与 AI 点评
type RecordingController struct {
	UserQuestionService *service.UserQuestionService
	AnalysisService     *service.AnalysisService
	StorageService      *service.StorageService
}

func NewRecordingController(
	userQuestionService *service.UserQuestionService,
	analysisService *service.AnalysisService,
	storageService *service.StorageService,
) *RecordingController {
	return &RecordingController{
		UserQuestionService: userQuestionService,
		AnalysisService:     analysisService,
		StorageService:      storageService,
	}
}

// UploadURL godoc
// @Summary 获取录音上传地址
// @Description 返回 5 分钟内有效的直传地址，上传完成后以 audioPath 调用保存接口
// @Tags 录音
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UploadURLInput true "上传请求"
// @Success 200 {object} util.Response{data=service.UploadURL} "成功"
// @Failure 400 {object} util.Response "不支持的音频类型"
// @Failure 403 {object} util.Response "不是自己的题目"
// @Router /api/v1/recordings/upload-url [post]
func (c *RecordingController) UploadURL(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UploadURLInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	upload, err := c.StorageService.RecordingUploadURL(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, upload)
}

// LocalUpload 本地存储模式下接收客户端直传的录音文件
func (c *RecordingController) LocalUpload(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	local := c.StorageService.Local()
	if local == nil {
		util.NotFound(ctx)
		return
	}

	key := strings.TrimPrefix(ctx.Param("key"), "/")
	if !strings.HasPrefix(key, "recordings/"+user.UserID+"/") {
		util.Forbidden(ctx)
		return
	}

	body := http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxLocalUploadBytes)
	if err := local.Save(key, body); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"audioPath": local.PublicURL(key)})
}

// Save godoc
// @Summary 保存讲解录音
// @Description 需要先提交代码；题目首次完成时同时更新剩余天数并安排复习
// @Tags 录音
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveRecordingInput true "录音信息"
// @Success 201 {object} util.Response{data=service.SaveRecordingResult} "成功"
// @Failure 400 {object} util.Response "尚未提交代码或信心分不合法"
// @Failure 403 {object} util.Response "不是自己的题目"
// @Failure 409 {object} util.Response "并发更新冲突"
// @Router /api/v1/recordings [post]
func (c *RecordingController) Save(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SaveRecordingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.UserQuestionService.SaveRecording(user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// Analyze godoc
// @Summary 发起 AI 点评
// @Description 异步执行；已在处理或已完成时直接返回当前状态
// @Tags 录音
// @Produce json
// @Security BearerAuth
// @Param id path string true "录音ID"
// @Success 202 {object} util.Response{data=service.AnalyzeResult} "已受理"
// @Failure 402 {object} map[string]string "需要订阅"
// @Failure 404 {object} util.Response "录音不存在"
// @Router /api/v1/recordings/{id}/analyze [post]
func (c *RecordingController) Analyze(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AnalysisService.Analyze(user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Accepted(ctx, result)
}

// Feedback godoc
// @Summary 获取 AI 点评
// @Tags 录音
// @Produce json
// @Security BearerAuth
// @Param id path string true "录音ID"
// @Success 200 {object} util.Response{data=service.RecordingFeedback} "成功"
// @Failure 402 {object} map[string]string "需要订阅"
// @Failure 404 {object} util.Response "录音不存在"
// @Router /api/v1/recordings/{id}/feedback [get]
func (c *RecordingController) Feedback(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	feedback, err := c.AnalysisService.Feedback(user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, feedback)
}
