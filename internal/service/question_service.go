package service

import (
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
)

const (
	defaultPageSize = 30
	maxPageSize     = 100
)

type QuestionService struct {
	Repo *repository.QuestionRepository
}

func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{Repo: repo}
}

func (s *QuestionService) List(filter repository.QuestionFilter) ([]model.Question, error) {
	return s.Repo.List(filter)
}

// Page 分页查询，页码从 0 开始
func (s *QuestionService) Page(filter repository.QuestionFilter, page, size int) (util.PageResult, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	list, total, err := s.Repo.Page(filter, page, size)
	if err != nil {
		return util.PageResult{}, err
	}
	return util.NewPageResult(list, page, size, total), nil
}

func (s *QuestionService) Get(id string) (*model.Question, error) {
	question, err := s.Repo.FindByID(id)
	if err != nil {
		if isNotFound(err) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) Patterns() ([]model.Pattern, error) {
	return s.Repo.ListPatterns()
}
