package submitter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/oarlock/ferry/internal/mocks/pkg/backend_mock"
	"github.com/oarlock/ferry/pkg/backend"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

func convertSpec(t *testing.T) *structs.JobSpec {
	spec, err := structs.NewSpec("convert").
		Compute("small", 1).
		Input("data", "s3://in/", "/in").
		Output("out", "/out", "s3://out/").
		Build()
	require.Nil(t, err)
	return spec
}

func TestSubmitReturnsSubmittedHandle(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)
	spec := convertSpec(t)

	be.EXPECT().Submit(gomock.Any(), spec).Return("backend-1", nil)

	job, err := sub.Submit(context.Background(), spec)

	require.Nil(t, err)
	assert.Equal(t, structs.SUBMITTED, job.State)
	assert.Equal(t, "backend-1", job.BackendJobID)
	assert.NotEmpty(t, job.ID)
	assert.NotEmpty(t, job.ETag)
	assert.Nil(t, job.ResultLocations)
}

func TestSubmitThenPollNeverTerminal(t *testing.T) {
	// a backend that takes non-zero time reports pending or running on
	// the first poll, never a terminal state
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)
	spec := convertSpec(t)

	be.EXPECT().Submit(gomock.Any(), spec).Return("backend-1", nil)
	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.SUBMITTED}, nil)

	job, err := sub.Submit(context.Background(), spec)
	require.Nil(t, err)

	job, err = sub.Poll(context.Background(), job)

	require.Nil(t, err)
	assert.False(t, structs.IsTerminalState(job.State))
}

func TestSubmitRejectsInvalidSpec(t *testing.T) {
	// no backend call should be made
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	spec := &structs.JobSpec{Entrypoint: "convert", Compute: structs.ComputeShape{InstanceType: "small", InstanceCount: 0}}
	job, err := sub.Submit(context.Background(), spec)

	assert.Nil(t, job)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestSubmitSurfacesBackendRejection(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	spec, err := structs.NewSpec("convert").Compute("invalid-type", 1).Build()
	require.Nil(t, err)

	be.EXPECT().Submit(gomock.Any(), spec).Return("", fmt.Errorf("%w instance type invalid-type", errors.ErrRejected))

	job, err := sub.Submit(context.Background(), spec)

	assert.Nil(t, job)
	assert.ErrorIs(t, err, errors.ErrRejected)
}

func TestPollIsIdempotent(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{JobSpec: *convertSpec(t), ID: "j", ETag: "e", BackendJobID: "backend-1", State: structs.SUBMITTED}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil).Times(2)

	one, err := sub.Poll(context.Background(), job)
	require.Nil(t, err)
	two, err := sub.Poll(context.Background(), job)
	require.Nil(t, err)

	assert.Equal(t, one.State, two.State)
	assert.Equal(t, one.ResultLocations, two.ResultLocations)
}

func TestPollSkipsBackendOnceTerminal(t *testing.T) {
	// no Status expectation; a call would fail the test
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{ID: "j", State: structs.SUCCEEDED, ResultLocations: []string{"s3://out/"}}

	got, err := sub.Poll(context.Background(), job)

	require.Nil(t, err)
	assert.Equal(t, structs.SUCCEEDED, got.State)
	assert.Equal(t, []string{"s3://out/"}, got.ResultLocations)
}

func TestPollSucceededFallsBackToDeclaredOutputs(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{JobSpec: *convertSpec(t), ID: "j", BackendJobID: "backend-1", State: structs.RUNNING}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.SUCCEEDED}, nil)

	got, err := sub.Poll(context.Background(), job)

	require.Nil(t, err)
	assert.Equal(t, structs.SUCCEEDED, got.State)
	assert.Equal(t, []string{"s3://out/"}, got.ResultLocations)
}

func TestAwaitCompletionZeroTimeout(t *testing.T) {
	// exactly one poll, then ErrTimeout; the remote job is left alone
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{ID: "j", BackendJobID: "backend-1", State: structs.SUBMITTED}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil).Times(1)

	got, err := sub.AwaitCompletion(context.Background(), job, time.Millisecond, 0)

	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Equal(t, structs.RUNNING, got.State)
}

func TestAwaitCompletionReachesTerminal(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{JobSpec: *convertSpec(t), ID: "j", BackendJobID: "backend-1", State: structs.SUBMITTED}

	gomock.InOrder(
		be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil),
		be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil),
		be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.SUCCEEDED, ResultLocations: []string{"s3://out/"}}, nil),
	)

	got, err := sub.AwaitCompletion(context.Background(), job, time.Millisecond, 5*time.Second)

	require.Nil(t, err)
	assert.Equal(t, structs.SUCCEEDED, got.State)
	assert.Equal(t, []string{"s3://out/"}, got.ResultLocations)
}

func TestAwaitCompletionTimesOut(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{ID: "j", BackendJobID: "backend-1", State: structs.SUBMITTED}

	be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil).AnyTimes()

	got, err := sub.AwaitCompletion(context.Background(), job, time.Millisecond, 30*time.Millisecond)

	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Equal(t, structs.RUNNING, got.State)
}

func TestAwaitCompletionSurfacesPollError(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{ID: "j", BackendJobID: "backend-1", State: structs.SUBMITTED}
	boom := fmt.Errorf("%w redis gone", errors.ErrBackendUnavailable)

	gomock.InOrder(
		be.EXPECT().Status(gomock.Any(), "backend-1").Return(&backend.Remote{State: structs.RUNNING}, nil),
		be.EXPECT().Status(gomock.Any(), "backend-1").Return(nil, boom),
	)

	_, err := sub.AwaitCompletion(context.Background(), job, time.Millisecond, 5*time.Second)

	assert.ErrorIs(t, err, errors.ErrBackendUnavailable)
}

func TestCancel(t *testing.T) {
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{ID: "j", BackendJobID: "backend-1", State: structs.RUNNING}

	be.EXPECT().Cancel(gomock.Any(), "backend-1").Return(nil)

	assert.Nil(t, sub.Cancel(context.Background(), job))
}

func TestCancelTerminalJob(t *testing.T) {
	// cancel is only meaningful from SUBMITTED or RUNNING
	be := backend_mock.NewMockBackend(gomock.NewController(t))
	sub := New(be, nil)

	job := &structs.Job{ID: "j", BackendJobID: "backend-1", State: structs.FAILED}

	err := sub.Cancel(context.Background(), job)

	assert.ErrorIs(t, err, errors.ErrTerminalState)
}
