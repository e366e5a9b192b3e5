package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/util"
	"github.com/segmentio/kafka-go"
)

var (
	ErrInvalidateParameter = errors.New("invalidate parameter")
	// ErrClientClosed 表示生產者已關閉
	ErrClientClosed = errors.New("producer is closed")
)

// KafkaError 代表 Kafka 操作錯誤
type KafkaError struct {
	Operation string
	Topic     string
	Err       error
}

func (e *KafkaError) Error() string {
	return fmt.Sprintf("kafka operation %s on topic %s failed: %v", e.Operation, e.Topic, e.Err)
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

// Writer kafka.Writer 的最小介面，測試時以fake替換
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	BatchSize    int
}

// NewKafkaWriter 建立 kafka-go writer
// topic 固定在writer上，訊息本身不帶topic
func NewKafkaWriter(cfg Config) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("%w: brokers and topic are required", ErrInvalidateParameter)
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeout,
		BatchSize:    cfg.BatchSize,
		// 設置較短的超時時間以快速發現問題
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
	}, nil
}

type Producer struct {
	w      Writer
	topic  string
	closed atomic.Bool
}

func NewProducer(w Writer, topic string) *Producer {
	if util.IsNil(w) {
		panic("kafka producer dependency writer is nil")
	}
	return &Producer{w: w, topic: topic}
}

func (p *Producer) Topic() string {
	return p.topic
}

// Produce 同步寫入單筆訊息
func (p *Producer) Produce(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	if p.closed.Load() {
		return &KafkaError{Operation: "produce", Topic: p.topic, Err: ErrClientClosed}
	}
	err := p.w.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Headers: headers,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		return &KafkaError{Operation: "produce", Topic: p.topic, Err: err}
	}
	return nil
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.w.Close()
}
