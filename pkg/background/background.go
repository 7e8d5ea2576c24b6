package background

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrAddJobTimeout = errors.New("failed to add new job in time")
var ErrPoolClosed = errors.New("pool is closed")

const queueBufferMultiplier = 2

type PoolConfig struct {
	Concurrency   int
	DoJobTimeout  time.Duration
	AddJobTimeout time.Duration
}

type JobFunc func(context.Context) error

type Job struct {
	ID   string
	Name string
	do   JobFunc
}

type JobResult struct {
	Job Job
	Err error
}

func NewJob(name string, jobFunc JobFunc) Job {
	return Job{
		ID:   uuid.New().String(),
		Name: name,
		do:   jobFunc,
	}
}

func (job Job) Do(ctx context.Context) JobResult {
	maybeErr := job.do(ctx)
	return JobResult{Job: job, Err: maybeErr}
}

type Worker struct {
	JobTimeout time.Duration
}

func (worker Worker) Work(ctx context.Context, job Job) JobResult {
	ctx, cancel := context.WithTimeout(ctx, worker.JobTimeout)
	defer cancel()
	// хотя мы и передаем контекст с таймайуом мы не можем гарантировать
	// что джоб вовремя остановится, поэтому запускаем ее в горутине и сами отслеживаем время выполнения
	resultCh := make(chan JobResult, 1)
	go func() {
		resultCh <- job.Do(ctx)
	}()
	select {
	case <-ctx.Done():
		log.Printf("deadline exceeded for job %s [%s]", job.Name, job.ID)
		return JobResult{Job: job, Err: ctx.Err()}
	case result := <-resultCh:
		return result
	}
}

// Pool исполняет джобы в фиксированном числе воркеров.
// Очередь ограничена, поэтому Add не блокирует вызывающий код дольше AddJobTimeout
type Pool struct {
	queue   chan Job
	cfg     PoolConfig
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
	results sync.WaitGroup
}

func NewPool(cfg PoolConfig) *Pool {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	queue := make(chan Job, cfg.Concurrency*queueBufferMultiplier)
	results := make(chan JobResult, cfg.Concurrency*queueBufferMultiplier)
	pool := &Pool{
		cfg:   cfg,
		queue: queue,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		pool.addWorker(queue, results)
	}

	// когда все воркеры разобрали очередь и завершились, закрываем канал с результатами
	go func() {
		pool.workers.Wait()
		close(results)
	}()

	// читаем из канала с результами исполнения джобов и пишем их статус в лог
	pool.results.Add(1)
	go func() {
		defer pool.results.Done()
		for result := range results {
			if result.Err != nil {
				log.Printf("job %s [%s] returned an error: %s", result.Job.Name, result.Job.ID, result.Err)
			}
		}
	}()

	return pool
}

func (pool *Pool) Add(ctx context.Context, job Job) error {
	pool.mu.RLock()
	defer pool.mu.RUnlock()
	if pool.closed {
		return ErrPoolClosed
	}
	ctx, cancel := context.WithTimeout(ctx, pool.cfg.AddJobTimeout)
	defer cancel()
	select {
	case <-ctx.Done():
		log.Printf("failed to add job %s [%s] due to blocked queue", job.Name, job.ID)
		return ErrAddJobTimeout
	case pool.queue <- job:
		return nil
	}
}

// Close перестает принимать новые джобы и дожидается исполнения уже поставленных в очередь.
// Если ctx истечет раньше, Close вернет управление, не дожидаясь оставшихся джобов
func (pool *Pool) Close(ctx context.Context) error {
	pool.mu.Lock()
	if !pool.closed {
		pool.closed = true
		close(pool.queue)
	}
	pool.mu.Unlock()

	done := make(chan struct{})
	go func() {
		pool.results.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Printf("pool closed before all jobs were finished")
		return ctx.Err()
	}
}

func (pool *Pool) addWorker(queue <-chan Job, results chan<- JobResult) {
	worker := Worker{JobTimeout: pool.cfg.DoJobTimeout}
	pool.workers.Add(1)
	go func() {
		defer pool.workers.Done()
		for job := range queue {
			results <- worker.Work(context.Background(), job)
		}
	}()
}
