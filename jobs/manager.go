package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/stats"
	"github.com/lordjav/use-your-brains/utils"
)

const (
	TypeRecordResult = "stats:record"
)

// JobManager queues quiz results for background recording so finishing a
// session never waits on persistence. Optional: when no Redis is
// configured the handlers record synchronously instead.
type JobManager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewJobManager(redisURL string) *JobManager {
	addr := strings.TrimPrefix(redisURL, "redis://")
	redisOpt := asynq.RedisClientOpt{
		Addr: addr,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"default": 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.LogError("Job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &AsynqLogger{},
	})

	mux := asynq.NewServeMux()

	return &JobManager{
		client: client,
		server: server,
		mux:    mux,
	}
}

func (jm *JobManager) RegisterHandlers(aggregator *stats.Aggregator) {
	jm.mux.HandleFunc(TypeRecordResult, jm.handleRecordResult(aggregator))
}

func (jm *JobManager) Start() error {
	utils.LogStartup("Starting job queue worker...")
	return jm.server.Run(jm.mux)
}

func (jm *JobManager) Stop() {
	utils.LogShutdown("Stopping job queue...")
	jm.server.Stop()
	jm.server.Shutdown()
	jm.client.Close()
}

// QueueResult enqueues a completed session's result for recording.
func (jm *JobManager) QueueResult(result *models.QuizResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result payload: %w", err)
	}

	task := asynq.NewTask(TypeRecordResult, payload)

	info, err := jm.client.Enqueue(task,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue result task: %w", err)
	}

	utils.LogInfo("Queued result recording job: ID=%s questionnaire=%s score=%d",
		info.ID, result.QuestionnaireID, result.Score)
	return nil
}

func (jm *JobManager) handleRecordResult(aggregator *stats.Aggregator) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var result models.QuizResult
		if err := json.Unmarshal(task.Payload(), &result); err != nil {
			return fmt.Errorf("failed to unmarshal result payload: %w", err)
		}

		utils.LogInfo("Processing result recording job: questionnaire=%s score=%d",
			result.QuestionnaireID, result.Score)

		if err := aggregator.Record(&result); err != nil {
			return fmt.Errorf("failed to record result for %s: %w", result.QuestionnaireID, err)
		}

		return nil
	}
}

// Custom logger that routes asynq output through the app's logging
type AsynqLogger struct{}

func (l *AsynqLogger) Debug(args ...interface{}) {
	utils.LogDebug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	utils.LogInfo(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}
