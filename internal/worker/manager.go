package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vidshare/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// Manager runs worker goroutines that consume the media stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	logger      *zap.Logger
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration // XREADGROUP block time
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, logger *zap.Logger, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		logger:      logger,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start ensures the consumer group exists and starts the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, consumerName(i))
	}

	m.logger.Info("media workers started",
		zap.Int("workers", m.workerCount),
		zap.String("stream", queue.StreamMedia),
		zap.String("group", queue.ConsumerGroupMedia),
	)
	return nil
}

// Stop cancels the workers and waits for them to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Info("media workers stopped")
}

func (m *Manager) runWorker(workerID int, consumer string) {
	defer m.wg.Done()
	log := m.logger.With(zap.Int("worker", workerID), zap.String("consumer", consumer))

	// Replay messages a previous run received but never acknowledged.
	m.processPending(log, consumer)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(log, consumer)
		}
	}
}

func (m *Manager) processPending(log *zap.Logger, consumer string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia, consumer, m.batchSize)
		if err != nil {
			log.Warn("read pending failed", zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}
		log.Info("processing pending messages", zap.Int("count", len(messages)))
		m.handleMessages(log, messages)
	}
}

func (m *Manager) processMessages(log *zap.Logger, consumer string) {
	messages, err := m.consumer.Read(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia, consumer, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Warn("read failed", zap.Error(err))
		select {
		case <-time.After(time.Second):
		case <-m.ctx.Done():
		}
		return
	}
	m.handleMessages(log, messages)
}

// handleMessages handles then acknowledges each message. Failed messages are
// acknowledged too so a poison message cannot block the stream.
func (m *Manager) handleMessages(log *zap.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			log.Error("handle event failed",
				zap.String("msg_id", msg.ID),
				zap.String("type", msg.Event.Type),
				zap.Error(err),
			)
		}
		if err := m.consumer.Ack(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia, msg.ID); err != nil {
			log.Warn("ack failed", zap.String("msg_id", msg.ID), zap.Error(err))
		}
	}
}

func consumerName(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}
