package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshay-km/studyvault-api/internal/dto"
	"github.com/akshay-km/studyvault-api/internal/models"
	"github.com/akshay-km/studyvault-api/internal/repository"
	appErrors "github.com/akshay-km/studyvault-api/pkg/errors"
	"github.com/akshay-km/studyvault-api/pkg/jobs"
)

type exportJobStoreStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: make(map[string]*models.ExportJob)}
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	job.CreatedAt = time.Now().UTC()
	s.jobs[job.ID] = job
	return nil
}

func (s *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if job, ok := s.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var result []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (s *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type dispatcherStub struct {
	enqueued []jobs.Job
	err      error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type generatorStub struct {
	result *ExportResult
	err    error
	calls  int
}

func (g *generatorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func TestExportJobServiceCreateJobQueues(t *testing.T) {
	store := newExportJobStoreStub()
	dispatcher := &dispatcherStub{}
	service := NewExportJobService(store, dispatcher, nil, nil, ExportJobServiceConfig{})

	resp, err := service.CreateJob(context.Background(), dto.ExportRequest{
		Scheme:   models.Scheme2019,
		Semester: 3,
		Format:   models.ExportFormatCSV,
	}, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, resp.ID, dispatcher.enqueued[0].ID)

	stored := store.jobs[resp.ID]
	assert.Equal(t, models.ExportFormatCSV, stored.Params.Format)
	assert.Equal(t, "admin-1", stored.CreatedBy)
}

func TestExportJobServiceCreateJobValidation(t *testing.T) {
	service := NewExportJobService(newExportJobStoreStub(), &dispatcherStub{}, nil, nil, ExportJobServiceConfig{})

	cases := []dto.ExportRequest{
		{Format: "xlsx"},
		{Format: models.ExportFormatCSV, Scheme: "2007"},
		{Format: models.ExportFormatCSV, Scheme: models.Scheme2019, Semester: 9},
		{Format: models.ExportFormatPDF, Semester: 3},
	}
	for _, req := range cases {
		_, err := service.CreateJob(context.Background(), req, "admin-1")
		require.Error(t, err)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestExportJobServiceCreateJobEnqueueFailure(t *testing.T) {
	store := newExportJobStoreStub()
	dispatcher := &dispatcherStub{err: errors.New("queue stopped")}
	service := NewExportJobService(store, dispatcher, nil, nil, ExportJobServiceConfig{})

	_, err := service.CreateJob(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV}, "admin-1")
	require.Error(t, err)

	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestExportJobServiceGetStatusNotFound(t *testing.T) {
	service := NewExportJobService(newExportJobStoreStub(), &dispatcherStub{}, nil, nil, ExportJobServiceConfig{})

	_, err := service.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExportJobServiceRecoverPendingJobs(t *testing.T) {
	store := newExportJobStoreStub()
	store.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}
	store.jobs["job-2"] = &models.ExportJob{ID: "job-2", Status: models.ExportStatusFinished}
	dispatcher := &dispatcherStub{}
	service := NewExportJobService(store, dispatcher, nil, nil, ExportJobServiceConfig{})

	service.RecoverPendingJobs(context.Background())
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, "job-1", dispatcher.enqueued[0].ID)
}

func TestExportWorkerHandleFinishesJob(t *testing.T) {
	store := newExportJobStoreStub()
	store.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	generator := &generatorStub{result: &ExportResult{
		URL:    "/api/v1/admin/exports/download/token-1",
		Format: models.ExportFormatCSV,
	}}
	worker := NewExportWorker(store, generator, nil, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))

	job := store.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/admin/exports/download/token-1", *job.ResultURL)
	require.NotNil(t, job.FinishedAt)
}

func TestExportWorkerHandleRequeuesBelowRetryLimit(t *testing.T) {
	store := newExportJobStoreStub()
	store.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}
	generator := &generatorStub{err: errors.New("dataset query failed")}
	worker := NewExportWorker(store, generator, nil, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	assert.Equal(t, 0, job.Progress)
	require.NotNil(t, job.ErrorMessage)
}

func TestExportWorkerHandleFailsAtRetryLimit(t *testing.T) {
	store := newExportJobStoreStub()
	store.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}
	generator := &generatorStub{err: errors.New("dataset query failed")}
	worker := NewExportWorker(store, generator, nil, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.FinishedAt)
}
