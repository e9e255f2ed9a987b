package service

import (
	"errors"
	"rewind_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// nowFunc 测试中可替换
var nowFunc = func() time.Time {
	return time.Now().UTC()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

const maxConflictRetries = 3

// retryOnConflict 乐观锁冲突时重试整个事务
func retryOnConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, util.ErrConcurrentUpdate) {
			return err
		}
	}
	return err
}

func validConfidence(c *int) error {
	if c != nil && (*c < 1 || *c > 5) {
		return util.ErrInvalidConfidence
	}
	return nil
}
