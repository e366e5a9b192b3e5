package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/util"
	"github.com/segmentio/kafka-go"
)

var (
	// ErrBufferFull 背景程序來不及消化，訊息被丟棄
	ErrBufferFull   = errors.New("producer buffer is full")
	ErrCloseTimeout = errors.New("producer not drained before close timeout")
)

// MessageProducer Producer 與 AsyncProducer 共用的寫入介面
type MessageProducer interface {
	Produce(ctx context.Context, key, value []byte, headers ...kafka.Header) error
	Topic() string
	Close() error
}

var (
	_ MessageProducer = (*Producer)(nil)
	_ MessageProducer = (*AsyncProducer)(nil)
)

type AsyncOption func(*AsyncProducer)

func WithBufferSize(n int) AsyncOption {
	return func(p *AsyncProducer) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

func WithBatchSize(n int) AsyncOption {
	return func(p *AsyncProducer) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) AsyncOption {
	return func(p *AsyncProducer) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

func WithCloseTimeout(d time.Duration) AsyncOption {
	return func(p *AsyncProducer) {
		if d > 0 {
			p.closeTimeout = d
		}
	}
}

// WithFailedHandler 批次寫入失敗時對每一筆訊息呼叫
func WithFailedHandler(f func(kafka.Message, error)) AsyncOption {
	return func(p *AsyncProducer) {
		p.handlerFailedfunc = f
	}
}

/*
AsyncProducer 呼叫端不等待 broker
  - Produce 只把訊息放進 receiverCh，滿了直接丟棄並回傳 ErrBufferFull
  - 背景程序累積到 batchSize 或每 flushInterval 寫一次
  - Close 關閉 receiverCh，等背景程序把剩下的訊息寫完
*/
type AsyncProducer struct {
	w     Writer
	topic string

	isRunning  atomic.Bool
	receiverCh chan kafka.Message
	isStopped  chan struct{}
	chanMutex  sync.RWMutex

	bufferSize        int
	batchSize         int
	flushInterval     time.Duration
	writeTimeout      time.Duration
	closeTimeout      time.Duration
	handlerFailedfunc func(kafka.Message, error)
}

func NewAsyncProducer(w Writer, topic string, opts ...AsyncOption) *AsyncProducer {
	if util.IsNil(w) {
		panic("kafka async producer dependency writer is nil")
	}
	p := &AsyncProducer{
		w:             w,
		topic:         topic,
		bufferSize:    1024,
		batchSize:     100,
		flushInterval: 200 * time.Millisecond,
		writeTimeout:  5 * time.Second,
		closeTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.receiverCh = make(chan kafka.Message, p.bufferSize)
	p.isStopped = make(chan struct{})
	p.isRunning.Store(true)
	go p.run()
	return p
}

func (p *AsyncProducer) Topic() string {
	return p.topic
}

func (p *AsyncProducer) Produce(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	p.chanMutex.RLock()
	defer p.chanMutex.RUnlock()
	if !p.isRunning.Load() {
		return &KafkaError{Operation: "produce", Topic: p.topic, Err: ErrClientClosed}
	}
	msg := kafka.Message{
		Key:     key,
		Value:   value,
		Headers: headers,
		Time:    time.Now().UTC(),
	}
	select {
	case p.receiverCh <- msg:
		return nil
	default:
		return &KafkaError{Operation: "produce", Topic: p.topic, Err: ErrBufferFull}
	}
}

// 結束條件就是完全消耗完receiverCh
func (p *AsyncProducer) run() {
	defer close(p.isStopped)

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()
	buffer := make([]kafka.Message, 0, p.batchSize)

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		err := p.w.WriteMessages(ctx, buffer...)
		cancel()
		if err != nil && p.handlerFailedfunc != nil {
			kErr := &KafkaError{Operation: "produce", Topic: p.topic, Err: err}
			for _, msg := range buffer {
				p.handlerFailedfunc(msg, kErr)
			}
		}
		buffer = buffer[:0]
	}

	for {
		select {
		case msg, ok := <-p.receiverCh:
			if !ok {
				flush()
				return
			}
			buffer = append(buffer, msg)
			if len(buffer) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (p *AsyncProducer) Close() (err error) {
	if !p.isRunning.CompareAndSwap(true, false) {
		return nil
	}
	p.chanMutex.Lock()
	close(p.receiverCh)
	p.chanMutex.Unlock()

	select {
	case <-p.isStopped:
	case <-time.After(p.closeTimeout):
		err = fmt.Errorf("%w: %s", ErrCloseTimeout, p.closeTimeout)
	}
	return errors.Join(err, p.w.Close())
}
