package controller

import (
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SolutionController struct {
	UserQuestionService *service.UserQuestionService
}

func NewSolutionController(userQuestionService *service.UserQuestionService) *SolutionController {
	return &SolutionController{UserQuestionService: userQuestionService}
}

// Submit godoc
// @Summary 提交代码
// @Tags 做题进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SubmitSolutionInput true "代码提交"
// @Success 201 {object} util.Response{data=map[string]string} "成功"
// @Failure 400 {object} util.Response "题目尚未开始"
// @Failure 403 {object} util.Response "不是自己的题目"
// @Router /api/v1/solutions [post]
func (c *SolutionController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitSolutionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	solution, err := c.UserQuestionService.SubmitSolution(user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"id": solution.ID})
}
