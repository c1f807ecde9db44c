package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/anvikal/askapi/internal/config"
	jobmodel "github.com/anvikal/askapi/internal/domain/jobModel"
	"github.com/anvikal/askapi/internal/metrics"
	"github.com/anvikal/askapi/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	timeout := 60 * time.Second
	if job.JobType != jobmodel.JobTypeQuery {
		// Indexing a large spec makes many generation and embedding calls
		timeout = config.IngestJobTimeout
	}
	ctx, cancel := context.WithTimeout(ctxTrace, timeout)
	defer cancel()
	logger.With("trace Id ", job.TraceId)
	logger.Debug("Processing job:", "job Id:", job.Id, "type", string(job.JobType))

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	switch job.JobType {
	case jobmodel.JobTypeIngestSpec:
		job.CurrentStep = jobmodel.IngestInit
		job = _ragService.IngestSpec(ctx, job)

	case jobmodel.JobTypeIngestNote:
		job.CurrentStep = jobmodel.IngestInit
		job = _ragService.IngestNote(ctx, job)

	default:
		job.CurrentStep = jobmodel.RedisCall
		job = processQuery(job, ctx, logger)
		if job.Status != jobmodel.JobStatusError {
			if err := _jobService.MessageStore.TrySaveChat(ctx, job.ChatId, job.JobPayload); err != nil {
				logger.Error("Failed to save chat history", "err", err)
			}
		}
	}

	job.EndTime = time.Now()
	if job.Status != jobmodel.JobStatusError {
		job.Status = jobmodel.JobStatusComplete
	}
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

// retireIfAboveFloor decrements the worker count and retires the caller,
// unless that would take the pool below the minimum. The decrement doubles
// as a reservation so concurrent timeouts cannot retire past the floor.
func retireIfAboveFloor() bool {
	if atomic.AddInt64(&currentWorkerCount, -1) >= atomic.LoadInt64(&minWorkerCount) {
		workerWaitGroup.Done()
		logger.Info("Removed worker ", "reason", "Idle worker timeout", "workerCount", atomic.LoadInt64(&currentWorkerCount))
		metrics.DecrementActiveWorkerCount()
		return true
	}
	atomic.AddInt64(&currentWorkerCount, 1)
	return false
}

func processQuery(job jobmodel.Job, ctx context.Context, logger *logger_i.Logger) jobmodel.Job {
	err, messageHistory := _jobService.MessageStore.GetMessageHistory(ctx, job.ChatId)
	if err != nil {
		logger.Error("Failed to get message history", "err", err)
	}
	job = _ragService.ProcessRequest(ctx, job, messageHistory)
	return job
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
}
