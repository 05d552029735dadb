/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/config"
	"github.com/stratastor/shareaudit/internal/common"
	"github.com/stratastor/shareaudit/pkg/directory"
	"github.com/stratastor/shareaudit/pkg/errors"
	"github.com/stratastor/shareaudit/pkg/notify"
	"github.com/stratastor/shareaudit/pkg/patterns"
	"github.com/stratastor/shareaudit/pkg/scan"
	"github.com/stratastor/shareaudit/pkg/scheduler"
	"github.com/stratastor/shareaudit/pkg/store"
)

// scanManager tracks in-flight and finished runs for the control surface.
// It is the only stateful piece of the HTTP layer; the scan engine itself
// is stateless between calls to Orchestrator.Run.
type scanManager struct {
	mu      sync.Mutex
	runs    map[string]*runState
	store   *store.Store
	logger  logger.Logger
}

type runState struct {
	result scan.Result
	sink   *scan.ChanSink
	done   bool
	cancel func()
}

// scanRequest is the POST /scans request body.
type scanRequest struct {
	Domain         string   `json:"domain" binding:"required"`
	OU             string   `json:"ou"`
	Hosts          []string `json:"hosts"`
	Username       string   `json:"username"`
	Password       string   `json:"password"`
	Threads        int      `json:"threads"`
	BatchSize      int      `json:"batchSize"`
	MaxScanDepth   int      `json:"maxScanDepth"`
	ExcludedShares []string `json:"excludedShares"`
}

type scheduleRequest struct {
	Cron string      `json:"cron" binding:"required"`
	Scan scanRequest `json:"scan" binding:"required"`
}

func newScanManager(st *store.Store, l logger.Logger) *scanManager {
	return &scanManager{runs: make(map[string]*runState), store: st, logger: l}
}

func registerScanRoutes(engine *gin.Engine, mgr *scanManager) {
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/scans", mgr.submitScan)
		v1.GET("/scans/:id", mgr.pollScan)
		v1.GET("/scans/:id/events", mgr.streamScan)
		v1.POST("/schedules", mgr.createSchedule)
	}
}

func (m *scanManager) buildConfig(req scanRequest) (scan.Config, []string, error) {
	cfg := config.GetConfig()

	hosts := req.Hosts
	if len(hosts) == 0 {
		dirClient, err := directory.Dial(directory.Config{
			Server:        cfg.Directory.LDAPServer,
			Port:          cfg.Directory.LDAPPort,
			Domain:        req.Domain,
			BaseDN:        cfg.Directory.BaseDN,
			BindUser:      cfg.Directory.BindUser,
			BindPass:      cfg.Directory.BindPass,
			UseSimpleBind: cfg.Directory.UseSimpleBind,
		}, m.logger)
		if err != nil {
			return scan.Config{}, nil, errors.Wrap(err, errors.OrchestratorDirectoryFailed)
		}
		defer dirClient.Close()

		hosts, err = dirClient.SearchComputers(context.Background(), directory.SearchOptions{
			OU:           req.OU,
			PageSize:     cfg.Directory.PageSize,
			MaxComputers: cfg.Scan.MaxComputers,
			Timeout:      cfg.Scan.SearchTimeout,
		})
		if err != nil {
			return scan.Config{}, nil, errors.Wrap(err, errors.OrchestratorDirectoryFailed)
		}
	}

	threads := req.Threads
	if threads == 0 {
		threads = cfg.Scan.DefaultThreads
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = cfg.Scan.BatchSize
	}
	maxDepth := req.MaxScanDepth
	if maxDepth == 0 {
		maxDepth = cfg.Scan.MaxScanDepth
	}
	excluded := req.ExcludedShares
	if excluded == nil {
		excluded = cfg.Scan.ExcludedShares
	}

	return scan.Config{
		Domain:           req.Domain,
		Hosts:            hosts,
		Threads:          threads,
		BatchSize:        batchSize,
		StorageBatch:     cfg.Scan.StorageBatch,
		MaxScanDepth:     maxDepth,
		ScanTimeout:      cfg.Scan.ScanTimeout,
		HostScanTimeout:  cfg.Scan.HostScanTimeout,
		ExcludedShares:   excluded,
		ScanForSensitive: cfg.Scan.ScanForSensitive,
		Username:         req.Username,
		Password:         req.Password,
	}, hosts, nil
}

func (m *scanManager) submitScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.APIError(c, errors.New(errors.ValidationMissingField, err.Error()))
		return
	}

	cfg, _, err := m.buildConfig(req)
	if err != nil {
		common.APIError(c, err)
		return
	}

	reg, err := patterns.Load(c.Request.Context(), m.store, m.logger)
	if err != nil {
		common.APIError(c, err)
		return
	}

	sink := scan.NewChanSink(128)
	runCtx, cancel := context.WithCancel(context.Background())
	orch := scan.New(m.store, reg, sink, m.logger)
	webhookCfg := config.GetConfig().Webhook
	orch.SetWebhook(notify.NewWebhook(webhookCfg.URL, webhookCfg.Timeout, m.logger))

	id := uuid.New().String()
	state := &runState{sink: sink, cancel: cancel}

	m.mu.Lock()
	m.runs[id] = state
	m.mu.Unlock()

	go func() {
		res := orch.Run(runCtx, cfg)
		m.mu.Lock()
		state.result = res
		state.done = true
		m.mu.Unlock()
		sink.Close()
	}()

	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

func (m *scanManager) pollScan(c *gin.Context) {
	id := c.Param("id")

	m.mu.Lock()
	state, ok := m.runs[id]
	m.mu.Unlock()
	if !ok {
		common.APIError(c, errors.New(errors.ServerNotFound, "unknown scan id"))
		return
	}

	if !state.done {
		c.JSON(http.StatusOK, gin.H{"id": id, "status": "running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"session": state.result.Session,
		"error":   errString(state.result.Err),
	})
}

func (m *scanManager) streamScan(c *gin.Context) {
	id := c.Param("id")

	m.mu.Lock()
	state, ok := m.runs[id]
	m.mu.Unlock()
	if !ok {
		common.APIError(c, errors.New(errors.ServerNotFound, "unknown scan id"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for ev := range state.sink.Events() {
		c.SSEvent(ev.Kind, gin.H{
			"host":            ev.Host,
			"shares_scanned":  ev.SharesScanned,
			"hosts_remaining": ev.HostsRemaining,
			"error":           errString(ev.Err),
		})
		c.Writer.Flush()
	}
}

func (m *scanManager) createSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.APIError(c, errors.New(errors.ValidationMissingField, err.Error()))
		return
	}

	cfg, _, err := m.buildConfig(req.Scan)
	if err != nil {
		common.APIError(c, err)
		return
	}

	sched, err := scheduler.Get(func(ctx context.Context, cfg scan.Config) scan.Result {
		reg, err := patterns.Load(ctx, m.store, m.logger)
		if err != nil {
			return scan.Result{Err: err}
		}
		orch := scan.New(m.store, reg, scan.NoopSink{}, m.logger)
		webhookCfg := config.GetConfig().Webhook
		orch.SetWebhook(notify.NewWebhook(webhookCfg.URL, webhookCfg.Timeout, m.logger))
		return orch.Run(ctx, cfg)
	}, m.logger)
	if err != nil {
		common.APIError(c, errors.Wrap(err, errors.SchedulerJobFailed))
		return
	}

	scheduleID, err := sched.Schedule(req.Cron, cfg)
	if err != nil {
		common.APIError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"schedule_id": scheduleID})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}
