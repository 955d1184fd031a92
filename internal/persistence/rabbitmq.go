package persistence

import (
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/EnuliForge/kwikorder-engine/internal/config"
)

// RabbitMQ wraps a broker connection used by the event relay.
type RabbitMQ struct {
	mu   sync.RWMutex
	url  string
	conn *amqp.Connection
}

// NewRabbitMQ dials the broker when a URL is configured.
func NewRabbitMQ(cfg config.RabbitMQConfig, logger *zap.Logger) (*RabbitMQ, error) {
	if cfg.URL == "" {
		logger.Warn("RABBITMQ_URL not provided; event relay disabled")
		return &RabbitMQ{}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to rabbitmq")
	return &RabbitMQ{url: cfg.URL, conn: conn}, nil
}

// Enabled reports whether a broker connection was configured.
func (r *RabbitMQ) Enabled() bool {
	return r != nil && r.url != ""
}

// Channel opens a channel, redialing once if the connection dropped.
func (r *RabbitMQ) Channel() (*amqp.Channel, error) {
	if !r.Enabled() {
		return nil, errors.New("rabbitmq not configured")
	}

	r.mu.RLock()
	conn := r.conn
	r.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		if err := r.reconnect(); err != nil {
			return nil, err
		}
		r.mu.RLock()
		conn = r.conn
		r.mu.RUnlock()
	}
	return conn.Channel()
}

func (r *RabbitMQ) reconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil && !r.conn.IsClosed() {
		return nil
	}
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return err
	}
	r.conn = conn
	return nil
}

// Close closes the connection.
func (r *RabbitMQ) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil && !r.conn.IsClosed() {
		_ = r.conn.Close()
	}
}
