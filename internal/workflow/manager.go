package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"phonogram/internal/config"
	"phonogram/internal/registry"
	"phonogram/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates.
type StageSet struct {
	Ingester stage.Handler
	Screener stage.Handler
	Minter   stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      registry.Status
	processingStatus registry.Status
	doneStatus       registry.Status
}

// Manager coordinates pipeline processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *registry.Store
	logger       *slog.Logger
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor

	stages       []pipelineStage
	stageByStart map[registry.Status]pipelineStage
	statusOrder  []registry.Status

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastWork *registry.Work
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *registry.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStages registers the pipeline handlers. The pipeline is strictly
// ordered: works flow pending -> ingested -> screened -> completed, with
// failed and review as terminal detours.
func (m *Manager) ConfigureStages(set StageSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = []pipelineStage{
		{
			name:             "ingest",
			handler:          set.Ingester,
			startStatus:      registry.StatusPending,
			processingStatus: registry.StatusIngesting,
			doneStatus:       registry.StatusIngested,
		},
		{
			name:             "screening",
			handler:          set.Screener,
			startStatus:      registry.StatusIngested,
			processingStatus: registry.StatusScreening,
			doneStatus:       registry.StatusScreened,
		},
		{
			name:             "minting",
			handler:          set.Minter,
			startStatus:      registry.StatusScreened,
			processingStatus: registry.StatusRegistering,
			doneStatus:       registry.StatusCompleted,
		},
	}
	m.stageByStart = make(map[registry.Status]pipelineStage, len(m.stages))
	m.statusOrder = m.statusOrder[:0]
	for _, stg := range m.stages {
		m.stageByStart[stg.startStatus] = stg
		m.statusOrder = append(m.statusOrder, stg.startStatus)
	}
}

func (m *Manager) stageForStatus(status registry.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}
