package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-place/internal/repository"
	"pixel-place/internal/tasks"
)

// pruneSchedule 是审计清理任务的执行周期
const pruneSchedule = "@every 1h"

// WorkerServer 封装了 Asynq Worker Server 和周期任务调度器的启动和关闭逻辑
type WorkerServer struct {
	server     *asynq.Server
	scheduler  *asynq.Scheduler
	log        *logrus.Entry
	actionRepo repository.ActionRepository
	retention  time.Duration
}

// NewWorkerServer 创建一个新的 WorkerServer 实例。retention <= 0 时不注册清理任务。
func NewWorkerServer(redisOpt asynq.RedisClientOpt, actionRepo repository.ActionRepository, logger *logrus.Logger, retention time.Duration) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				queue, _ := asynq.GetQueueName(ctx)
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"queue":     queue,
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
			Logger:   logEntry,
			LogLevel: asynq.WarnLevel,
		},
	)

	var scheduler *asynq.Scheduler
	if retention > 0 {
		scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   logEntry,
			LogLevel: asynq.WarnLevel,
		})
	}

	return &WorkerServer{
		server:     server,
		scheduler:  scheduler,
		log:        logEntry,
		actionRepo: actionRepo,
		retention:  retention,
	}
}

// NewServeMux 注册所有任务处理器
func NewServeMux(actionRepo repository.ActionRepository, retention time.Duration) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeTileAudit, NewTileAuditHandler(actionRepo))
	mux.Handle(tasks.TypeTileAuditPrune, NewAuditPruneHandler(actionRepo, retention))
	return mux
}

// Start 启动 Worker Server 和调度器，不阻塞。
func (ws *WorkerServer) Start() error {
	if ws.scheduler != nil {
		entryID, err := ws.scheduler.Register(pruneSchedule, tasks.NewTileAuditPruneTask(), asynq.Queue("low"))
		if err != nil {
			return fmt.Errorf("register audit prune task: %w", err)
		}
		if err := ws.scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		ws.log.WithField("entry_id", entryID).Infof("Audit prune scheduled (%s, retention %s)", pruneSchedule, ws.retention)
	}

	ws.log.Info("Worker server starting...")
	if err := ws.server.Start(NewServeMux(ws.actionRepo, ws.retention)); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	return nil
}

// Shutdown 优雅地关闭调度器和 Worker Server
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	if ws.scheduler != nil {
		ws.scheduler.Shutdown()
	}
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
