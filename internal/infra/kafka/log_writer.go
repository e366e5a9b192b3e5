package kafka

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"
)

// LogWriter 讓 zerolog 可以把log寫到kafka
// key 使用遞增的log id，讓訊息平均分配到各分區
// 搭配 AsyncProducer 時寫log不會等待broker
type LogWriter struct {
	p       MessageProducer
	logId   atomic.Int64
	timeout time.Duration
}

func NewLogWriter(p MessageProducer) *LogWriter {
	return &LogWriter{p: p, timeout: 5 * time.Second}
}

func (kw *LogWriter) Write(p []byte) (n int, err error) {
	if kw == nil || kw.p == nil {
		return 0, fmt.Errorf("kafka logger is not init")
	}

	id := kw.logId.Add(1)
	kbuf := make([]byte, 8)
	binary.BigEndian.PutUint64(kbuf, uint64(id))

	// zerolog 會重複使用 p，需要複製
	value := make([]byte, len(p))
	copy(value, p)

	ctx, cancel := context.WithTimeout(context.Background(), kw.timeout)
	defer cancel()
	if err := kw.p.Produce(ctx, kbuf, value); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (kw *LogWriter) Close() error {
	return kw.p.Close()
}
