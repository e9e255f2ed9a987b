package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rewind_backend/internal/config"
	"rewind_backend/internal/model"
	"rewind_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStorage(t *testing.T, env *testEnv) *StorageService {
	t.Helper()
	cfg := &config.Config{Storage: config.StorageConfig{
		Type:          util.StorageLocal,
		LocalPath:     t.TempDir(),
		PublicBaseURL: "http://localhost:8080/",
	}}
	return NewStorageService(cfg, env.uqs)
}

func TestRecordingUploadURL(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	_, questions := env.addPattern(t, "Matrix", model.DifficultyEasy)
	uq, err := env.userQuestions.Start("user-1", questions[0].ID)
	require.NoError(t, err)

	storage := newLocalStorage(t, env)
	require.NotNil(t, storage.Local())

	upload, err := storage.RecordingUploadURL(context.Background(), "user-1", UploadURLInput{UserQuestionID: uq.ID})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.AudioPath, "http://localhost:8080/uploads/recordings/user-1/"+uq.ID+"/"))
	assert.Equal(t, upload.AudioPath, upload.UploadURL)
	assert.Equal(t, testNow.Add(recordingUploadTTL), upload.ExpiresAt)

	_, err = storage.RecordingUploadURL(context.Background(), "user-1", UploadURLInput{
		UserQuestionID: uq.ID,
		ContentType:    "video/mp4",
	})
	assert.ErrorIs(t, err, util.ErrUnsupportedMedia)

	_, err = storage.RecordingUploadURL(context.Background(), "user-2", UploadURLInput{UserQuestionID: uq.ID})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestLocalStorageSave(t *testing.T) {
	env := newTestEnv(t)
	storage := newLocalStorage(t, env)
	local := storage.Local()

	require.NoError(t, local.Save("recordings/user-1/q/v1.webm", strings.NewReader("audio")))
	data, err := os.ReadFile(filepath.Join(local.Config.LocalPath, "recordings", "user-1", "q", "v1.webm"))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))

	err = local.Save("../escape.webm", strings.NewReader("x"))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}
