package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"phonogram/internal/logging"
	"phonogram/internal/registry"
	"phonogram/internal/services"
	"phonogram/internal/stage"
)

func (m *Manager) processWork(ctx context.Context, logger *slog.Logger, work *registry.Work) error {
	stg, ok := m.stageForStatus(work.Status)
	if !ok {
		logger.Warn("no stage configured for status", logging.String("status", string(work.Status)))
		m.waitForWorkOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithStage(services.WithWorkID(ctx, work.ID), stg.name), requestID)
	stageLogger := logging.WithContext(stageCtx, logger)

	if err := m.transitionToProcessing(stageCtx, stg, work); err != nil {
		stageLogger.Error("failed to transition work to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, work)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, work *registry.Work) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("title", strings.TrimSpace(work.Title)),
	)

	handler := stg.handler
	if handler == nil {
		stageLogger.Warn("missing stage handler", logging.String(logging.FieldStage, stg.name))
		work.SetFailed(fmt.Sprintf("stage %s missing handler", stg.name))
		if err := m.store.UpdateWork(ctx, work); err != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(err))
		}
		err := errors.New("stage handler unavailable")
		m.setLastError(err)
		return err
	}

	if err := handler.Prepare(ctx, work); err != nil {
		m.handleStageFailure(ctx, stageLogger, stg.name, work, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.UpdateWork(ctx, work); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, handler, work)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stageLogger, stg.name, work, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if work.NeedsReview {
		work.Status = registry.StatusReview
	} else if work.Status == stg.processingStatus || work.Status == "" {
		work.Status = stg.doneStatus
	}
	work.LastHeartbeat = nil
	if work.Status == registry.StatusCompleted && work.ProgressPercent < 100 {
		work.ProgressPercent = 100
	}
	if err := m.store.UpdateWork(ctx, work); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(work.Status)),
		logging.String("progress_message", strings.TrimSpace(work.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastWork(work)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, work *registry.Work) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, work.ID)

	execErr := handler.Execute(ctx, work)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, work *registry.Work) error {
	now := time.Now().UTC()
	work.Status = stg.processingStatus
	work.ProgressPercent = 0
	work.ErrorMessage = ""
	work.LastHeartbeat = &now
	if err := m.store.UpdateWork(ctx, work); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastWork(work)
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, stageLogger *slog.Logger, stageName string, work *registry.Work, stageErr error) {
	message := classifyStageFailure(stageName, stageErr)
	resolved := services.FailureStatus(stageErr)
	if resolved == registry.StatusReview {
		work.SetReview(message)
	} else {
		work.SetFailed(message)
	}

	stageLogger.Error("stage failed",
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", message),
	)

	if err := m.store.UpdateWork(ctx, work); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("daemon shutting down, could not update stage failure")
		} else {
			stageLogger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	m.setLastWork(work)
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return fmt.Sprintf("%s failed without error detail", stageName)
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	return message
}
