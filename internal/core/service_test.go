package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/oarlock/ferry/internal/mocks/pkg/backend_mock"
	"github.com/oarlock/ferry/internal/mocks/pkg/database_mock"
	"github.com/oarlock/ferry/internal/utils"
	"github.com/oarlock/ferry/pkg/backend"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

// newTestService returns a service with mocks & no background routines.
func newTestService(t *testing.T) (*Service, *database_mock.MockDatabase, *backend_mock.MockBackend) {
	ctrl := gomock.NewController(t)
	db := database_mock.NewMockDatabase(ctrl)
	be := backend_mock.NewMockBackend(ctrl)
	svc, err := NewService(db, be, &structs.Options{MaxJobRuntime: time.Hour})
	require.Nil(t, err)
	return svc, db, be
}

func validSpec(t *testing.T) *structs.JobSpec {
	spec, err := structs.NewSpec("convert").
		Compute("small", 1).
		Input("data", "s3://in/", "/in").
		Output("out", "/out", "s3://out/").
		Build()
	require.Nil(t, err)
	return spec
}

func TestSubmitJob(t *testing.T) {
	svc, db, be := newTestService(t)
	spec := validSpec(t)

	be.EXPECT().Submit(gomock.Any(), spec).Return("backend-1", nil)
	db.EXPECT().InsertJob(gomock.Any()).DoAndReturn(func(j *structs.Job) error {
		assert.Equal(t, structs.SUBMITTED, j.State)
		assert.Equal(t, "backend-1", j.BackendJobID)
		assert.Equal(t, "convert", j.Entrypoint)
		return nil
	})

	job, err := svc.SubmitJob(context.Background(), spec)

	require.Nil(t, err)
	assert.Equal(t, structs.SUBMITTED, job.State)
}

func TestSubmitJobInvalidSpec(t *testing.T) {
	svc, _, _ := newTestService(t)

	job, err := svc.SubmitJob(context.Background(), &structs.JobSpec{})

	assert.Nil(t, job)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestSubmitJobCancelsOnInsertFailure(t *testing.T) {
	// if we can't record the job we shouldn't leave it running untracked
	svc, db, be := newTestService(t)
	spec := validSpec(t)
	boom := fmt.Errorf("db gone")

	be.EXPECT().Submit(gomock.Any(), spec).Return("backend-1", nil)
	db.EXPECT().InsertJob(gomock.Any()).Return(boom)
	be.EXPECT().Cancel(gomock.Any(), "backend-1").Return(nil)

	job, err := svc.SubmitJob(context.Background(), spec)

	assert.Nil(t, job)
	assert.Equal(t, boom, err)
}

func TestCancel(t *testing.T) {
	svc, db, be := newTestService(t)

	id, etag := utils.NewRandomID(), utils.NewRandomID()
	job := &structs.Job{ID: id, ETag: etag, BackendJobID: "backend-1", State: structs.RUNNING}

	db.EXPECT().Jobs(gomock.Any()).Return([]*structs.Job{job}, nil)
	be.EXPECT().Cancel(gomock.Any(), "backend-1").Return(nil)

	count, err := svc.Cancel(context.Background(), []*structs.ObjectRef{structs.NewObjectRef(id, etag)})

	require.Nil(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCancelSkipsTerminalJobs(t *testing.T) {
	svc, db, _ := newTestService(t)

	id, etag := utils.NewRandomID(), utils.NewRandomID()
	job := &structs.Job{ID: id, ETag: etag, BackendJobID: "backend-1", State: structs.SUCCEEDED}

	db.EXPECT().Jobs(gomock.Any()).Return([]*structs.Job{job}, nil)

	count, err := svc.Cancel(context.Background(), []*structs.ObjectRef{structs.NewObjectRef(id, etag)})

	require.Nil(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCancelETagMismatch(t *testing.T) {
	svc, db, _ := newTestService(t)

	id := utils.NewRandomID()
	job := &structs.Job{ID: id, ETag: utils.NewRandomID(), BackendJobID: "backend-1", State: structs.RUNNING}

	db.EXPECT().Jobs(gomock.Any()).Return([]*structs.Job{job}, nil)

	_, err := svc.Cancel(context.Background(), []*structs.ObjectRef{structs.NewObjectRef(id, utils.NewRandomID())})

	assert.ErrorIs(t, err, errors.ErrETagMismatch)
}

func TestCancelRejectsBadRefs(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Cancel(context.Background(), []*structs.ObjectRef{structs.NewObjectRef("nope", "nah")})

	assert.ErrorIs(t, err, errors.ErrInvalidArg)
}

func TestReconcileSucceeded(t *testing.T) {
	svc, db, be := newTestService(t)

	job := &structs.Job{
		JobSpec:      *validSpec(t),
		ID:           "j",
		ETag:         "e",
		BackendJobID: "backend-1",
		State:        structs.RUNNING,
		CreatedAt:    time.Now().Unix(),
	}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.SUCCEEDED}, nil)
	db.EXPECT().SetJobSucceeded(structs.NewObjectRef("j", "e"), gomock.Any(), []string{"s3://out/"}).Return(int64(1), nil)

	assert.Nil(t, svc.reconcile(context.Background(), job, time.Now().Unix()))
}

func TestReconcileFailed(t *testing.T) {
	svc, db, be := newTestService(t)

	job := &structs.Job{ID: "j", ETag: "e", BackendJobID: "backend-1", State: structs.RUNNING, CreatedAt: time.Now().Unix()}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.FAILED, Message: "boom"}, nil)
	db.EXPECT().SetJobsState(structs.FAILED, gomock.Any(), []*structs.ObjectRef{structs.NewObjectRef("j", "e")}, "boom").Return(int64(1), nil)

	assert.Nil(t, svc.reconcile(context.Background(), job, time.Now().Unix()))
}

func TestReconcileLostJob(t *testing.T) {
	svc, db, be := newTestService(t)

	job := &structs.Job{ID: "j", ETag: "e", BackendJobID: "backend-1", State: structs.SUBMITTED, CreatedAt: time.Now().Unix()}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(nil, fmt.Errorf("%w gone", errors.ErrNotFound))
	db.EXPECT().SetJobsState(structs.FAILED, gomock.Any(), []*structs.ObjectRef{structs.NewObjectRef("j", "e")}, "job lost by backend").Return(int64(1), nil)

	assert.Nil(t, svc.reconcile(context.Background(), job, time.Now().Unix()))
}

func TestReconcileExpiredJob(t *testing.T) {
	svc, db, be := newTestService(t)

	created := time.Now().Add(-2 * time.Hour).Unix()
	job := &structs.Job{
		JobSpec:      structs.JobSpec{TimeoutSeconds: 60},
		ID:           "j",
		ETag:         "e",
		BackendJobID: "backend-1",
		State:        structs.RUNNING,
		CreatedAt:    created,
	}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil)
	be.EXPECT().Cancel(gomock.Any(), "backend-1").Return(nil)
	db.EXPECT().SetJobsState(structs.TIMED_OUT, gomock.Any(), []*structs.ObjectRef{structs.NewObjectRef("j", "e")}, "exceeded 60s").Return(int64(1), nil)

	assert.Nil(t, svc.reconcile(context.Background(), job, time.Now().Unix()))
}

func TestReconcileStateDrift(t *testing.T) {
	svc, db, be := newTestService(t)

	job := &structs.Job{ID: "j", ETag: "e", BackendJobID: "backend-1", State: structs.SUBMITTED, CreatedAt: time.Now().Unix()}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil)
	db.EXPECT().SetJobsState(structs.RUNNING, gomock.Any(), []*structs.ObjectRef{structs.NewObjectRef("j", "e")}).Return(int64(1), nil)

	assert.Nil(t, svc.reconcile(context.Background(), job, time.Now().Unix()))
}
