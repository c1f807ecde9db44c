package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/domain/jobModel"
	"github.com/anvikal/askapi/internal/job"
	"github.com/anvikal/askapi/pkg/logger_i"
)

// MockRagService counts which entry points get invoked
type MockRagService struct {
	QueryCount      int32
	SpecIngestCount int32
	NoteIngestCount int32
}

func (m *MockRagService) ProcessRequest(ctx context.Context, j jobModel.Job, hist []string) jobModel.Job {
	atomic.AddInt32(&m.QueryCount, 1)
	return j
}

func (m *MockRagService) IngestSpec(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.SpecIngestCount, 1)
	return j
}

func (m *MockRagService) IngestNote(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.NoteIngestCount, 1)
	return j
}

func (m *MockRagService) ActivateSpec(ctx context.Context, path string, validate bool) (int, error) {
	return 0, nil
}

type MockJobStore struct {
	OnSaveJob func(ctx context.Context, job jobModel.Job) error
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	//TODO implement me
	panic("implement me")
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {
	//TODO implement me
	panic("implement me")
}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	if m.OnSaveJob != nil {
		return m.OnSaveJob(ctx, j)
	}
	return nil
}

// MockMessageStore handles chat history
type MockMessageStore struct {
	OnGetHistory func(ctx context.Context, chatId string) (error, []string)
	OnSaveChat   func(ctx context.Context, chatId string, payload jobModel.JobPayload) error
}

func (m *MockMessageStore) ValidateChatId(ctx context.Context, id string) bool {
	return true
}

func (m *MockMessageStore) InitNewChat(ctx context.Context, id string) error {
	return nil
}

func (m *MockMessageStore) GetMessageHistory(ctx context.Context, id string) (error, []string) {
	if m.OnGetHistory != nil {
		return m.OnGetHistory(ctx, id)
	}
	return nil, []string{}
}

func (m *MockMessageStore) TrySaveChat(ctx context.Context, id string, p jobModel.JobPayload) error {
	if m.OnSaveChat != nil {
		return m.OnSaveChat(ctx, id, p)
	}
	return nil
}

func TestWorkerPool_Flow(t *testing.T) {
	// 1. Setup
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          &MockJobStore{},
		MessageStore:      &MockMessageStore{},
	}
	mockRag := &MockRagService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockRag)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		// Signal dispatcher to create a worker
		jobSvc.DispatcherChannel <- true

		// Give it a millisecond to spawn
		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker routes query job", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "query-1"}

		// Wait for worker to pick up and process
		time.Sleep(50 * time.Millisecond)

		if got := atomic.LoadInt32(&mockRag.QueryCount); got != 1 {
			t.Errorf("Expected 1 query processed, got %d", got)
		}
	})

	t.Run("Worker routes ingestion jobs by type", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "spec-1", JobType: jobModel.JobTypeIngestSpec}
		jobSvc.JobChannel <- jobModel.Job{Id: "note-1", JobType: jobModel.JobTypeIngestNote}

		time.Sleep(100 * time.Millisecond)

		if got := atomic.LoadInt32(&mockRag.SpecIngestCount); got != 1 {
			t.Errorf("Expected 1 spec ingestion, got %d", got)
		}
		if got := atomic.LoadInt32(&mockRag.NoteIngestCount); got != 1 {
			t.Errorf("Expected 1 note ingestion, got %d", got)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		// Send stop signal
		close(stopChan)

		// Wait for workers to exit
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_CompletedJobSaved(t *testing.T) {
	var saved jobModel.Job
	var savedCount int32
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 1),
		DispatcherChannel: make(chan bool, 1),
		JobStore: &MockJobStore{
			OnSaveJob: func(ctx context.Context, j jobModel.Job) error {
				if atomic.AddInt32(&savedCount, 1) == 2 {
					saved = j
				}
				return nil
			},
		},
		MessageStore: &MockMessageStore{},
	}
	InitServices(jobSvc, &MockRagService{})

	executeJob(jobModel.Job{Id: "done-1"})

	// first save marks the job running, second save records the outcome
	if atomic.LoadInt32(&savedCount) != 2 {
		t.Fatalf("Expected 2 saves, got %d", savedCount)
	}
	if saved.Status != jobModel.JobStatusComplete {
		t.Errorf("Final status = %s, want %s", saved.Status, jobModel.JobStatusComplete)
	}
	if saved.EndTime.IsZero() {
		t.Error("EndTime should be set on completion")
	}
}

func TestWorker_IdleTimeoutShrinksPoolToMinimum(t *testing.T) {
	// Temporarily override config/globals for test
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, config.MinWorkerCount)
	logger = logger_i.NewLogger("TestWorkerPool")
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job),
	}
	InitServices(jobSvc, &MockRagService{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	// Spawn one worker above the floor: the surplus one retires on idle
	// timeout, the remaining one stays up
	createWorker()
	createWorker()
	time.Sleep(config.IdleWorkerTimeout)

	time.Sleep(100 * time.Millisecond)
	count := atomic.LoadInt64(&currentWorkerCount)
	if count != config.MinWorkerCount {
		t.Errorf("Idle pool should shrink back to %d worker(s), but count is %d", config.MinWorkerCount, count)
	}

	close(stopChan)
	wg.Wait()
}
