package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/infra/kafka"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type EventType string

const (
	CartItemAdded       EventType = "cart.item_added"
	CartItemRemoved     EventType = "cart.item_removed"
	CartQuantityUpdated EventType = "cart.quantity_updated"
	CartCleared         EventType = "cart.cleared"
	CheckoutConfirmed   EventType = "checkout.confirmed"
	CheckoutFailed      EventType = "checkout.failed"
)

// Event 給營運後台分析使用，欄位依事件類型選填
type Event struct {
	Type       EventType `json:"type"`
	Subject    string    `json:"subject,omitempty"`
	CartID     string    `json:"cartId,omitempty"`
	ProductID  string    `json:"productId,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	OrderID    string    `json:"orderId,omitempty"`
	Code       string    `json:"code,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher 發送失敗只記錄，不回傳給呼叫端
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

type KafkaPublisher struct {
	producer kafka.MessageProducer
	logger   *zerolog.Logger
}

func NewKafkaPublisher(producer kafka.MessageProducer, logger *zerolog.Logger) *KafkaPublisher {
	if util.IsNil(producer) {
		panic("activity publisher dependency producer is nil")
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &KafkaPublisher{producer: producer, logger: logger}
}

var _ Publisher = (*KafkaPublisher)(nil)

// Publish 以 subject 為 key，同一使用者的事件會落在同一個 partition
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(evt)
	if err != nil {
		p.logger.Warn().Err(err).Str("type", string(evt.Type)).Msg("failed to encode activity event")
		return
	}
	err = p.producer.Produce(ctx, []byte(evt.Subject), value, kafkago.Header{Key: "type", Value: []byte(evt.Type)})
	if err != nil {
		p.logger.Warn().Err(err).Str("type", string(evt.Type)).Str("topic", p.producer.Topic()).Msg("failed to publish activity event")
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Recorder 測試用，保存所有事件
type Recorder struct {
	events chan Event
}

func NewRecorder(size int) *Recorder {
	return &Recorder{events: make(chan Event, size)}
}

func (r *Recorder) Publish(_ context.Context, evt Event) {
	select {
	case r.events <- evt:
	default:
	}
}

// Drain 取出目前所有事件
func (r *Recorder) Drain() []Event {
	var out []Event
	for {
		select {
		case e := <-r.events:
			out = append(out, e)
		default:
			return out
		}
	}
}
