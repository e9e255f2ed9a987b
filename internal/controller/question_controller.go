package controller

import (
	"rewind_backend/internal/repository"
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuestionController 题库接口，无需登录
type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// List godoc
// @Summary 题目列表
// @Description 按难度和模式筛选题目；传 page 时返回分页结果（页码从 0 开始）
// @Tags 题库
// @Produce json
// @Param difficulty query string false "难度 Easy/Medium/Hard"
// @Param patternId query string false "模式ID"
// @Param page query int false "页码"
// @Param size query int false "每页数量，默认 30，最大 100"
// @Success 200 {object} util.Response{data=[]model.Question} "成功"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/v1/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	filter := repository.QuestionFilter{
		Difficulty: ctx.Query("difficulty"),
		PatternID:  ctx.Query("patternId"),
	}

	if page, ok := ctx.GetQuery("page"); ok {
		result, err := c.QuestionService.Page(filter,
			util.ParseIntDefault(page, 0),
			util.ParseIntDefault(ctx.Query("size"), 0))
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		util.Success(ctx, result)
		return
	}

	questions, err := c.QuestionService.List(filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// Get godoc
// @Summary 题目详情
// @Tags 题库
// @Produce json
// @Param id path string true "题目ID"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/v1/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	question, err := c.QuestionService.Get(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// Patterns godoc
// @Summary 模式列表
// @Tags 题库
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Pattern} "成功"
// @Router /api/v1/patterns [get]
func (c *QuestionController) Patterns(ctx *gin.Context) {
	patterns, err := c.QuestionService.Patterns()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, patterns)
}
