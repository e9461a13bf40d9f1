package opsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/bastion/operatelog"
	"github.com/Abraxas-365/bastion/pkg/config"
	"github.com/Abraxas-365/bastion/remote"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/robfig/cron/v3"
)

const flushTimeout = 30 * time.Second

// ErrorLogService encola registros fire-and-forget y los persiste en
// lotes con un job periódico
type ErrorLogService struct {
	queue   operatelog.ErrorLogQueue
	repo    operatelog.ErrorLogRepository
	cfg     config.OperateLogConfig
	cron    *cron.Cron
	timeout time.Duration
}

// NewErrorLogService crea el servicio de error logs
func NewErrorLogService(queue operatelog.ErrorLogQueue, repo operatelog.ErrorLogRepository, cfg config.OperateLogConfig) *ErrorLogService {
	return &ErrorLogService{
		queue:   queue,
		repo:    repo,
		cfg:     cfg,
		cron:    cron.New(),
		timeout: 3 * time.Second,
	}
}

// Submit encola el registro sin bloquear ni fallar hacia el llamador: la
// indisponibilidad de la cola se loguea y se descarta.
func (s *ErrorLogService) Submit(log operatelog.ErrorLog) {
	remote.Submit("error-log-enqueue", s.timeout, func(ctx context.Context) error {
		return s.queue.Enqueue(ctx, log)
	})
}

// StartFlusher arranca el job periódico de persistencia
func (s *ErrorLogService) StartFlusher() error {
	if _, err := s.cron.AddFunc(s.cfg.FlushSpec, s.flushOnce); err != nil {
		return operatelog.ErrStoreFailed().
			WithDetail("flush_spec", s.cfg.FlushSpec).
			WithCause(err)
	}
	s.cron.Start()
	return nil
}

// Stop detiene el job y espera el flush en curso
func (s *ErrorLogService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *ErrorLogService) flushOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	logs, err := s.queue.Drain(ctx, s.cfg.FlushMax)
	if err != nil {
		logx.Warn("error log flush: drain failed: %v", err)
		return
	}
	if len(logs) == 0 {
		return
	}

	if err := s.repo.SaveBatch(ctx, logs); err != nil {
		logx.Error("error log flush: save failed, %d records lost: %v", len(logs), err)
		return
	}

	logx.Info("error log flush: persisted %d records", len(logs))
}
