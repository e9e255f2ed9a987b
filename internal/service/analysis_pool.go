package service

import (
	"context"
	"fmt"
	"rewind_backend/pkg/logger"
	"sync"

	"go.uber.org/zap"
)

// AnalysisPool 固定数量的后台 goroutine 消费有界队列
type AnalysisPool struct {
	workers int
	jobs    chan func(ctx context.Context)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewAnalysisPool(workers, queueSize int) *AnalysisPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AnalysisPool{
		workers: workers,
		jobs:    make(chan func(ctx context.Context), queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *AnalysisPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	logger.Log.Info("Starting analysis worker pool", zap.Int("workers", p.workers), zap.Int("queue", cap(p.jobs)))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runLoop(i + 1)
	}
}

// Submit 非阻塞提交，队列已满或已停止时返回 false
func (p *AnalysisPool) Submit(job func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop 停止接收新任务并等待队列处理完；ctx 到期后取消仍在运行的任务
func (p *AnalysisPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *AnalysisPool) runLoop(workerID int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(workerID, job)
	}
	logger.Log.Debug("Analysis worker stopped", zap.Int("workerId", workerID))
}

func (p *AnalysisPool) run(workerID int, job func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Analysis job panic",
				zap.Int("workerId", workerID),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	job(p.ctx)
}
