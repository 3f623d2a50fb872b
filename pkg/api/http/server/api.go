package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oarlock/ferry/pkg/api"
	"github.com/oarlock/ferry/pkg/api/http/common"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	shutdownWait = 30 * time.Second
)

type Server struct {
	addr       string
	debug      bool
	log        *zap.Logger
	svc        api.API
	exit       chan os.Signal
	httpserver *http.Server
}

func NewServer(addr string, debug bool) *Server {
	log := zap.Must(zap.NewProduction())
	if debug {
		log = zap.Must(zap.NewDevelopment())
	}
	return &Server{
		addr:  addr,
		debug: debug,
		log:   log,
		exit:  make(chan os.Signal, 1),
	}
}

func (s *Server) ServeForever(svc api.API) error {
	s.svc = svc

	router := mux.NewRouter()
	router.HandleFunc(common.API_HEALTH, s.Health).Methods(http.MethodGet)
	router.Handle(common.API_METRICS, promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc(common.API_JOBS, s.Jobs).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc(common.API_CANCEL, s.Cancel).Methods(http.MethodPatch)

	if s.debug {
		s.log.Info("debug enabled, adding per-request logging middleware")
		router.Use(s.loggingMiddleware)
	}

	s.httpserver = &http.Server{
		Handler:      router,
		Addr:         s.addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		s.log.Info("listening", zap.String("addr", s.httpserver.Addr))
		if err := s.httpserver.ListenAndServe(); err != nil {
			s.log.Error("server stopped", zap.Error(err))
		}
	}()

	signal.Notify(s.exit, os.Interrupt)
	defer s.Close()
	<-s.exit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	return s.httpserver.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.log.Sync()
	return s.svc.Close()
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) Jobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getJobs(w, r)
	case http.MethodPost:
		s.submitJob(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	spec := &structs.JobSpec{}
	err := unmarshalJson(w, r, spec)
	if err != nil {
		return
	}

	job, err := s.svc.SubmitJob(r.Context(), spec)
	if err != nil {
		jobsSubmitted.WithLabelValues("error").Inc()
		http.Error(w, err.Error(), mapError(err))
		return
	}
	jobsSubmitted.WithLabelValues("ok").Inc()

	err = json.NewEncoder(w).Encode(job)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) getJobs(w http.ResponseWriter, r *http.Request) {
	q := &structs.Query{}
	err := unmarshalQuery(w, r, q)
	if err != nil {
		return
	}

	items, err := s.svc.Jobs(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(items)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	refs := []*structs.ObjectRef{}
	err := unmarshalJson(w, r, &refs)
	if err != nil {
		return
	}

	count, err := s.svc.Cancel(r.Context(), refs)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	jobsCancelled.Add(float64(count))

	err = json.NewEncoder(w).Encode(&common.UpdateResponse{Updated: count})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
