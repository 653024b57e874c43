package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/qdo/internal/api"
	"github.com/aristath/qdo/internal/database"
	"github.com/aristath/qdo/internal/scheduler"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	db        *database.DB
	scheduler *scheduler.Scheduler
	startedAt time.Time

	mu   sync.RWMutex
	jobs map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, db *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("service", "system").Logger(),
		db:        db,
		scheduler: sched,
		startedAt: time.Now(),
		jobs:      make(map[string]scheduler.Job),
	}
}

// SetJobs registers job instances for manual triggering via API
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, job := range jobs {
		if job != nil {
			h.jobs[job.Name()] = job
		}
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	CPUPercent    float64         `json:"cpu_percent"`
	MemoryPercent float64         `json:"memory_percent"`
	Goroutines    int             `json:"goroutines"`
	GoVersion     string          `json:"go_version"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	ScheduledJobs int             `json:"scheduled_jobs"`
	Database      *database.Stats `json:"database,omitempty"`
}

// DatabaseStatsResponse represents the database statistics response
type DatabaseStatsResponse struct {
	Name    string          `json:"name"`
	Path    string          `json:"path"`
	Healthy bool            `json:"healthy"`
	Error   string          `json:"error,omitempty"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// JobStatus describes a job that can be triggered manually
type JobStatus struct {
	Name string `json:"name"`
}

// HandleSystemStatus returns process, host and database statistics
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "healthy",
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}
	if h.scheduler != nil {
		response.ScheduledJobs = h.scheduler.Len()
	}

	if h.db != nil {
		stats, err := h.db.GetStats(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to get database stats")
			response.Status = "degraded"
		} else {
			response.Database = stats
		}
	}

	api.WriteData(w, http.StatusOK, response, h.log)
}

// HandleDatabaseStats pings the database and returns its statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	if h.db == nil {
		api.WriteJSON(w, http.StatusServiceUnavailable, api.ErrorBody{
			Error: "database not configured",
			Kind:  "unavailable",
		}, h.log)
		return
	}

	response := DatabaseStatsResponse{
		Name:    h.db.Name(),
		Path:    h.db.Path(),
		Healthy: true,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.QuickCheck(ctx); err != nil {
		response.Healthy = false
		response.Error = err.Error()
	}
	stats, err := h.db.GetStats(ctx)
	if err != nil {
		response.Healthy = false
		response.Error = err.Error()
	} else {
		response.Stats = stats
	}

	status := http.StatusOK
	if !response.Healthy {
		status = http.StatusServiceUnavailable
	}
	api.WriteData(w, status, response, h.log)
}

// HandleJobsStatus lists the jobs that can be triggered
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	jobs := make([]JobStatus, 0, len(h.jobs))
	for name := range h.jobs {
		jobs = append(jobs, JobStatus{Name: name})
	}
	h.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	api.WriteData(w, http.StatusOK, jobs, h.log)
}

// HandleTriggerJob runs the named job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.mu.RLock()
	job, ok := h.jobs[name]
	h.mu.RUnlock()

	if !ok {
		api.WriteJSON(w, http.StatusNotFound, api.ErrorBody{
			Error: fmt.Sprintf("job not registered: %s", name),
			Kind:  "not_found",
		}, h.log)
		return
	}

	start := time.Now()
	if err := h.runJob(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		api.WriteJSON(w, http.StatusInternalServerError, api.ErrorBody{
			Error: err.Error(),
			Kind:  "job_failed",
		}, h.log)
		return
	}

	api.WriteData(w, http.StatusOK, map[string]interface{}{
		"job":              name,
		"status":           "completed",
		"duration_seconds": time.Since(start).Seconds(),
	}, h.log)
}

func (h *SystemHandlers) runJob(job scheduler.Job) error {
	if h.scheduler != nil {
		return h.scheduler.RunNow(job)
	}
	return job.Run()
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// Short sample window
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
