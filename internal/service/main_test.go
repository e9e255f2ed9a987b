package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"rewind_backend/internal/config"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/pkg/database"
	"rewind_backend/pkg/logger"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	logger.InitNop()
	nowFunc = func() time.Time { return testNow }
	os.Exit(m.Run())
}

// 测试用的确定性外部依赖
type fakeCritic struct {
	enabled bool
	reply   string
	err     error
	panics  string
	calls   int32
}

func (f *fakeCritic) Enabled() bool { return f.enabled }

func (f *fakeCritic) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panics != "" {
		panic(f.panics)
	}
	return f.reply, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Enabled() bool { return true }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	return f.text, f.err
}

type fakeGateway struct {
	orders  int
	amounts []int64
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	g.orders++
	g.amounts = append(g.amounts, amount)
	return fmt.Sprintf("order_test_%d", g.orders), nil
}

var testCredentials = config.RazorpayConfig{
	KeyID:         "rzp_test_key",
	KeySecret:     "key_secret",
	WebhookSecret: "webhook_secret",
}

type testEnv struct {
	db       *gorm.DB
	users    *repository.UserRepository
	question *repository.QuestionRepository
	uqs      *repository.UserQuestionRepository
	stats    *repository.PatternStatsRepository
	events   *repository.ReadinessEventRepository
	revRepo  *repository.RevisionRepository
	subRepo  *repository.SubscriptionRepository
	payRepo  *repository.PaymentRepository
	recRepo  *repository.RecordingRepository
	fbRepo   *repository.FeedbackRepository

	readiness     *ReadinessService
	revisions     *RevisionService
	userQuestions *UserQuestionService
	subscriptions *SubscriptionService
	payments      *PaymentService
	accounts      *UserService
	analytics     *AnalyticsService
	gateway       *fakeGateway

	orderIndex int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return openTestEnv(t, "")
}

// newSerializedTestEnv 事务以 BEGIN IMMEDIATE 开始，用写锁模拟行锁，供并发测试使用
func newSerializedTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return openTestEnv(t, "&_txlock=immediate")
}

func openTestEnv(t *testing.T, params string) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rewind.db") + "?_busy_timeout=5000&_journal_mode=WAL" + params
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("test"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		question: repository.NewQuestionRepository(db),
		uqs:      repository.NewUserQuestionRepository(db),
		stats:    repository.NewPatternStatsRepository(db),
		events:   repository.NewReadinessEventRepository(db),
		revRepo:  repository.NewRevisionRepository(db),
		subRepo:  repository.NewSubscriptionRepository(db),
		payRepo:  repository.NewPaymentRepository(db),
		recRepo:  repository.NewRecordingRepository(db),
		fbRepo:   repository.NewFeedbackRepository(db),
		gateway:  &fakeGateway{},
	}

	patternStats := NewPatternStatsService(env.stats)
	env.readiness = NewReadinessService(db, env.users, env.events, env.uqs, env.stats, env.question, env.revRepo)
	env.revisions = NewRevisionService(db, env.revRepo, env.uqs, env.stats, env.question, env.readiness)
	env.userQuestions = NewUserQuestionService(
		db, env.uqs, env.question, repository.NewSolutionRepository(db), env.recRepo, env.fbRepo,
		env.revRepo, env.stats, env.events, env.users,
		patternStats, env.readiness, env.revisions,
	)
	env.subscriptions = NewSubscriptionService(db, env.subRepo, env.payRepo, nil, time.Minute)
	env.payments = NewPaymentService(db, env.payRepo, env.subscriptions, env.gateway, testCredentials)
	env.accounts = NewUserService(db, env.users, env.subscriptions)
	env.analytics = NewAnalyticsService(env.uqs, env.question, env.stats)
	return env
}

// addPattern 创建一个模式及其题目，返回题目列表
func (e *testEnv) addPattern(t *testing.T, name string, difficulties ...string) (*model.Pattern, []model.Question) {
	t.Helper()
	pattern := &model.Pattern{Name: name, Category: "Test", ImportanceWeight: 1}
	require.NoError(t, e.db.Create(pattern).Error)

	questions := make([]model.Question, 0, len(difficulties))
	for i, d := range difficulties {
		e.orderIndex++
		q := model.Question{
			Title:      fmt.Sprintf("%s #%d", name, i+1),
			Difficulty: d,
			OrderIndex: e.orderIndex,
			PatternID:  pattern.ID,
		}
		require.NoError(t, e.db.Create(&q).Error)
		questions = append(questions, q)
	}
	return pattern, questions
}

func (e *testEnv) addUser(t *testing.T, id string) *model.User {
	t.Helper()
	user := &model.User{
		UUIDBase:             model.UUIDBase{ID: id},
		Email:                id + "@example.com",
		Name:                 id,
		InterviewTargetDays:  model.DefaultTargetDays,
		CurrentReadinessDays: model.DefaultTargetDays,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) reloadUser(t *testing.T, id string) *model.User {
	t.Helper()
	user, err := e.users.FindByID(id)
	require.NoError(t, err)
	return user
}

// complete 走完开始、提交代码、保存录音的完整流程
func (e *testEnv) complete(t *testing.T, userID, questionID string, confidence *int) (*model.UserQuestion, *SaveRecordingResult) {
	t.Helper()
	uq, err := e.userQuestions.Start(userID, questionID)
	require.NoError(t, err)

	_, err = e.userQuestions.SubmitSolution(userID, SubmitSolutionInput{
		UserQuestionID: uq.ID,
		Code:           "def solve(nums): return sorted(nums)",
		Language:       "python",
	})
	require.NoError(t, err)

	result, err := e.userQuestions.SaveRecording(userID, SaveRecordingInput{
		UserQuestionID:  uq.ID,
		AudioURL:        "https://cdn.example.com/recordings/" + uq.ID + ".webm",
		DurationSeconds: 120,
		ConfidenceScore: confidence,
	})
	require.NoError(t, err)
	return uq, result
}

func (e *testEnv) count(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}

func intPtr(v int) *int { return &v }
