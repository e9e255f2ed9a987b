package repository

import (
	"rewind_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserQuestionRepository struct {
	DB *gorm.DB
}

func NewUserQuestionRepository(db *gorm.DB) *UserQuestionRepository {
	return &UserQuestionRepository{DB: db}
}

func (r *UserQuestionRepository) WithTx(tx *gorm.DB) *UserQuestionRepository {
	return &UserQuestionRepository{DB: tx}
}

func (r *UserQuestionRepository) Create(uq *model.UserQuestion) error {
	return r.DB.Create(uq).Error
}

func (r *UserQuestionRepository) Save(uq *model.UserQuestion) error {
	return r.DB.Omit("Question").Save(uq).Error
}

func (r *UserQuestionRepository) FindByID(id string) (*model.UserQuestion, error) {
	var uq model.UserQuestion
	err := r.DB.Preload("Question.Pattern").Where("id = ?", id).First(&uq).Error
	if err != nil {
		return nil, err
	}
	return &uq, nil
}

func (r *UserQuestionRepository) FindByUserAndQuestion(userID, questionID string) (*model.UserQuestion, error) {
	var uq model.UserQuestion
	err := r.DB.Preload("Question.Pattern").
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&uq).Error
	if err != nil {
		return nil, err
	}
	return &uq, nil
}

func (r *UserQuestionRepository) ListByUser(userID string) ([]model.UserQuestion, error) {
	var list []model.UserQuestion
	err := r.DB.Preload("Question.Pattern").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}

// ListDone 已完成的题目，预加载题目信息
func (r *UserQuestionRepository) ListDone(userID string) ([]model.UserQuestion, error) {
	var list []model.UserQuestion
	err := r.DB.Preload("Question").
		Where("user_id = ? AND status = ?", userID, model.StatusDone).
		Find(&list).Error
	return list, err
}

func (r *UserQuestionRepository) ListDoneSince(userID string, since time.Time) ([]model.UserQuestion, error) {
	var list []model.UserQuestion
	err := r.DB.Where("user_id = ? AND status = ? AND done_at >= ?", userID, model.StatusDone, since).
		Order("done_at ASC").
		Find(&list).Error
	return list, err
}

func (r *UserQuestionRepository) CountDone(userID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserQuestion{}).
		Where("user_id = ? AND status = ?", userID, model.StatusDone).
		Count(&count).Error
	return count, err
}

func (r *UserQuestionRepository) CountDoneSince(userID string, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserQuestion{}).
		Where("user_id = ? AND status = ? AND done_at >= ?", userID, model.StatusDone, since).
		Count(&count).Error
	return count, err
}

// CountDoneByDifficulty difficulty -> 已完成数量
func (r *UserQuestionRepository) CountDoneByDifficulty(userID string) (map[string]int64, error) {
	var rows []struct {
		Difficulty string
		Total      int64
	}
	err := r.DB.Model(&model.UserQuestion{}).
		Select("questions.difficulty AS difficulty, COUNT(*) AS total").
		Joins("JOIN questions ON questions.id = user_questions.question_id").
		Where("user_questions.user_id = ? AND user_questions.status = ?", userID, model.StatusDone).
		Group("questions.difficulty").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Difficulty] = row.Total
	}
	return counts, nil
}

// OwnedIDs 子查询：某用户的全部 user_question id
func (r *UserQuestionRepository) OwnedIDs(userID string) *gorm.DB {
	return r.DB.Model(&model.UserQuestion{}).Select("id").Where("user_id = ?", userID)
}

func (r *UserQuestionRepository) DeleteByUser(userID string) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.UserQuestion{}).Error
}
