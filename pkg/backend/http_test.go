package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarlock/ferry/pkg/api/http/common"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

func httpBackend(t *testing.T, handler http.Handler) (*HTTP, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	be, err := NewHTTP(&Options{URL: ts.URL})
	require.Nil(t, err)
	return be, ts
}

func TestHTTPSubmit(t *testing.T) {
	be, _ := httpBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, common.API_JOBS, r.URL.Path)

		spec := &structs.JobSpec{}
		require.Nil(t, json.NewDecoder(r.Body).Decode(spec))
		assert.Equal(t, "convert", spec.Entrypoint)

		json.NewEncoder(w).Encode(&structs.Job{ID: "job-1", State: structs.SUBMITTED})
	}))

	spec, err := structs.NewSpec("convert").Build()
	require.Nil(t, err)

	id, err := be.Submit(context.Background(), spec)

	require.Nil(t, err)
	assert.Equal(t, "job-1", id)
}

func TestHTTPSubmitRejected(t *testing.T) {
	// the server refuses shapes it can't run; the caller sees a rejection
	be, _ := httpBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "instance type invalid-type", http.StatusUnprocessableEntity)
	}))

	spec, err := structs.NewSpec("convert").Compute("invalid-type", 1).Build()
	require.Nil(t, err)

	_, err = be.Submit(context.Background(), spec)

	assert.ErrorIs(t, err, errors.ErrRejected)
}

func TestHTTPSubmitServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close() // nothing listening any more

	be, err := NewHTTP(&Options{URL: ts.URL})
	require.Nil(t, err)

	spec, err := structs.NewSpec("convert").Build()
	require.Nil(t, err)

	_, err = be.Submit(context.Background(), spec)

	assert.ErrorIs(t, err, errors.ErrBackendUnavailable)
}

func TestHTTPStatus(t *testing.T) {
	be, _ := httpBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "job-1", r.URL.Query().Get("job_ids"))

		json.NewEncoder(w).Encode([]*structs.Job{{
			ID:              "job-1",
			State:           structs.SUCCEEDED,
			ResultLocations: []string{"s3://out/"},
		}})
	}))

	remote, err := be.Status(context.Background(), "job-1")

	require.Nil(t, err)
	assert.Equal(t, structs.SUCCEEDED, remote.State)
	assert.Equal(t, []string{"s3://out/"}, remote.ResultLocations)
}

func TestHTTPStatusUnknownJob(t *testing.T) {
	be, _ := httpBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]*structs.Job{})
	}))

	_, err := be.Status(context.Background(), "nope")

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestHTTPCancel(t *testing.T) {
	var cancelled []*structs.ObjectRef

	be, _ := httpBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case common.API_JOBS:
			json.NewEncoder(w).Encode([]*structs.Job{{ID: "job-1", ETag: "tag-1", State: structs.RUNNING}})
		case common.API_CANCEL:
			assert.Equal(t, http.MethodPatch, r.Method)
			require.Nil(t, json.NewDecoder(r.Body).Decode(&cancelled))
			json.NewEncoder(w).Encode(&common.UpdateResponse{Updated: 1})
		default:
			http.NotFound(w, r)
		}
	}))

	err := be.Cancel(context.Background(), "job-1")

	require.Nil(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "job-1", cancelled[0].ID)
	assert.Equal(t, "tag-1", cancelled[0].ETag)
}
