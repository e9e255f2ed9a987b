package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"rewind_backend/internal/config"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/logger"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const recordingUploadTTL = 5 * time.Minute

// StorageProvider 录音对象存储
type StorageProvider interface {
	// PresignUpload 生成客户端直传用的 PUT 地址
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	// PublicURL 上传完成后对象的访问地址
	PublicURL(key string) string
}

// LocalStorageProvider 本地存储，开发环境使用，由 PUT /uploads/*key 接收文件
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return p.PublicURL(key), nil
}

func (p *LocalStorageProvider) PublicURL(key string) string {
	return strings.TrimRight(p.Config.PublicBaseURL, "/") + "/uploads/" + key
}

// Save 写入本地文件，key 不允许跳出存储目录
func (p *LocalStorageProvider) Save(key string, reader io.Reader) error {
	root, err := filepath.Abs(p.Config.LocalPath)
	if err != nil {
		return err
	}
	dst := filepath.Join(root, filepath.FromSlash(key))
	if !strings.HasPrefix(dst, root+string(os.PathSeparator)) {
		return util.ErrPermissionDenied
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, reader)
	return err
}

// MinioStorageProvider MinIO 存储
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	u, err := p.Client.PresignedPutObject(ctx, p.Config.MinioBucket, key, ttl)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (p *MinioStorageProvider) PublicURL(key string) string {
	if p.Config.PublicBaseURL != "" {
		return strings.TrimRight(p.Config.PublicBaseURL, "/") + "/" + p.Config.MinioBucket + "/" + key
	}
	scheme := "http"
	if p.Config.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, p.Config.MinioEndpoint, p.Config.MinioBucket, key)
}

// OSSStorageProvider 阿里云 OSS 存储
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	return bucket.SignURL(key, oss.HTTPPut, int64(ttl.Seconds()), oss.ContentType(contentType))
}

func (p *OSSStorageProvider) PublicURL(key string) string {
	if p.Config.PublicBaseURL != "" {
		return strings.TrimRight(p.Config.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, key)
}

type UploadURLInput struct {
	UserQuestionID  string `json:"userQuestionId" binding:"required"`
	ContentType     string `json:"contentType"`
	DurationSeconds int    `json:"durationSeconds"`
}

type UploadURL struct {
	UploadURL string    `json:"uploadUrl"`
	AudioPath string    `json:"audioPath"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService 录音上传地址
type StorageService struct {
	Provider StorageProvider
	UQRepo   *repository.UserQuestionRepository
}

func NewStorageService(cfg *config.Config, uqRepo *repository.UserQuestionRepository) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init minio storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init oss storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider, UQRepo: uqRepo}
}

// Local 本地存储时返回具体实现，否则为 nil
func (s *StorageService) Local() *LocalStorageProvider {
	local, _ := s.Provider.(*LocalStorageProvider)
	return local
}

func allowedAudioType(contentType string) bool {
	for _, t := range util.AllowedAudioContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// RecordingUploadURL 为用户的讲解录音生成 5 分钟有效的上传地址
func (s *StorageService) RecordingUploadURL(ctx context.Context, userID string, input UploadURLInput) (*UploadURL, error) {
	contentType := input.ContentType
	if contentType == "" {
		contentType = util.MimeWebm
	}
	if !allowedAudioType(contentType) {
		return nil, util.ErrUnsupportedMedia
	}
	if _, err := loadOwned(s.UQRepo, userID, input.UserQuestionID); err != nil {
		return nil, err
	}

	now := nowFunc()
	key := fmt.Sprintf("recordings/%s/%s/v%d.webm", userID, input.UserQuestionID, now.UnixMilli())
	uploadURL, err := s.Provider.PresignUpload(ctx, key, contentType, recordingUploadTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &UploadURL{
		UploadURL: uploadURL,
		AudioPath: s.Provider.PublicURL(key),
		ExpiresAt: now.Add(recordingUploadTTL),
	}, nil
}
