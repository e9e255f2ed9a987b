package database

import (
	_ "embed"
	"fmt"
	"rewind_backend/internal/model"
	"rewind_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed/catalog.yaml
var catalogYAML []byte

type seedQuestion struct {
	Title       string `yaml:"title"`
	Difficulty  string `yaml:"difficulty"`
	LeetcodeURL string `yaml:"leetcode_url"`
	TimeMinutes int    `yaml:"time_minutes"`
}

type seedPattern struct {
	Name             string         `yaml:"name"`
	Category         string         `yaml:"category"`
	ImportanceWeight float64        `yaml:"importance_weight"`
	MentalModel      string         `yaml:"mental_model"`
	Questions        []seedQuestion `yaml:"questions"`
}

type seedCatalog struct {
	Patterns []seedPattern `yaml:"patterns"`
}

// ParseCatalog 解析内置题库
func ParseCatalog(data []byte) ([]model.Pattern, []model.Question, error) {
	var catalog seedCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, nil, err
	}

	var patterns []model.Pattern
	var questions []model.Question
	order := 1
	for _, sp := range catalog.Patterns {
		p := model.Pattern{
			UUIDBase:         model.UUIDBase{ID: model.GenerateUUID()},
			Name:             sp.Name,
			Category:         sp.Category,
			ImportanceWeight: sp.ImportanceWeight,
			MentalModel:      sp.MentalModel,
		}
		patterns = append(patterns, p)
		for _, sq := range sp.Questions {
			switch sq.Difficulty {
			case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
			default:
				return nil, nil, fmt.Errorf("question %q: unknown difficulty %q", sq.Title, sq.Difficulty)
			}
			questions = append(questions, model.Question{
				Title:       sq.Title,
				Difficulty:  sq.Difficulty,
				LeetcodeURL: sq.LeetcodeURL,
				TimeMinutes: sq.TimeMinutes,
				OrderIndex:  order,
				PatternID:   p.ID,
			})
			order++
		}
	}
	return patterns, questions, nil
}

// Seed 题库为空时写入内置数据
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Pattern{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	patterns, questions, err := ParseCatalog(catalogYAML)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(patterns, 50).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(questions, 100).Error
	})
	if err != nil {
		return err
	}

	logger.Log.Info("Catalog seeded",
		zap.Int("patterns", len(patterns)),
		zap.Int("questions", len(questions)),
	)
	return nil
}
