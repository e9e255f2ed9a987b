package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingWriter struct {
	lines []string
}

func (w *recordingWriter) Printf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	w := &recordingWriter{}
	l := newGormLogger(w, gormlogger.Warn)
	query := func() (string, int64) { return "SELECT * FROM `users` WHERE id = 1", 0 }

	l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, w.lines)

	l.Trace(context.Background(), time.Now(), query, fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound))
	assert.Empty(t, w.lines)

	l.Trace(context.Background(), time.Now(), query, errors.New("connection refused"))
	assert.Len(t, w.lines, 1)
	assert.Contains(t, w.lines[0], "connection refused")
}

func TestGormConfigLevel(t *testing.T) {
	assert.NotNil(t, GormConfig("debug").Logger)
	assert.NotNil(t, GormConfig("release").Logger)
	assert.Equal(t, time.UTC, GormConfig("release").NowFunc().Location())
}
