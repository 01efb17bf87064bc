package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/repository"
)

type MockEventSource struct {
	m         sync.Mutex
	Events    []*repository.OutboxEvent
	GetErr    error
	MarkErr   error
	Processed []int64
}

func (s *MockEventSource) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	var pending []*repository.OutboxEvent
	for _, e := range s.Events {
		done := false
		for _, id := range s.Processed {
			if id == e.ID {
				done = true
			}
		}
		if !done {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (s *MockEventSource) MarkEventAsProcessed(_ context.Context, id int64) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.MarkErr != nil {
		return s.MarkErr
	}
	s.Processed = append(s.Processed, id)
	return nil
}

func (s *MockEventSource) processed() []int64 {
	s.m.Lock()
	defer s.m.Unlock()
	return append([]int64(nil), s.Processed...)
}

type MockWriter struct {
	m        sync.Mutex
	Messages []kafkaGo.Message
	FailOn   string
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	for _, msg := range msgs {
		if string(msg.Key) == w.FailOn {
			return errors.New("leader not available")
		}
		w.Messages = append(w.Messages, msg)
	}
	return nil
}

func testEvents() []*repository.OutboxEvent {
	return []*repository.OutboxEvent{
		{ID: 1, AggregateID: "order-1", EventType: "order.confirmed", Payload: []byte(`{"order_id":"order-1"}`)},
		{ID: 2, AggregateID: "order-2", EventType: "order.confirmed", Payload: []byte(`{"order_id":"order-2"}`)},
	}
}

func TestProcessUnpublishedEvents(t *testing.T) {
	source := &MockEventSource{Events: testEvents()}
	writer := &MockWriter{}
	p := NewOutboxPoller(source, writer, time.Second, 10, zap.NewNop())

	p.processUnpublishedEvents(context.Background())

	require.Len(t, writer.Messages, 2)
	assert.Equal(t, "order-1", string(writer.Messages[0].Key))
	assert.Equal(t, "event_type", writer.Messages[0].Headers[0].Key)
	assert.Equal(t, "order.confirmed", string(writer.Messages[0].Headers[0].Value))
	assert.Equal(t, []int64{1, 2}, source.processed())

	p.processUnpublishedEvents(context.Background())
	assert.Len(t, writer.Messages, 2)
}

func TestProcessUnpublishedEvents_StopsAtFirstFailure(t *testing.T) {
	source := &MockEventSource{Events: testEvents()}
	writer := &MockWriter{FailOn: "order-1"}
	p := NewOutboxPoller(source, writer, time.Second, 10, zap.NewNop())

	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, writer.Messages)
	assert.Empty(t, source.processed())
}

func TestProcessUnpublishedEvents_FetchError(t *testing.T) {
	source := &MockEventSource{GetErr: errors.New("connection refused")}
	writer := &MockWriter{}
	p := NewOutboxPoller(source, writer, time.Second, 10, zap.NewNop())

	p.processUnpublishedEvents(context.Background())
	assert.Empty(t, writer.Messages)
}

func TestRun_StopsOnCancel(t *testing.T) {
	source := &MockEventSource{Events: testEvents()}
	writer := &MockWriter{}
	p := NewOutboxPoller(source, writer, 10*time.Millisecond, 10, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(source.processed()) == 2 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func setupKafka(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping kafka container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestOutboxPoller_PublishesToKafka(t *testing.T) {
	brokerAddr := setupKafka(t)
	createTopic(t, brokerAddr, "order-events")
	time.Sleep(5 * time.Second)

	source := &MockEventSource{Events: testEvents()[:1]}
	writer := NewKafkaWriter("order-events", brokerAddr)
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	go NewOutboxPoller(source, writer, time.Second, 10, zap.NewNop()).Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    "order-events",
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(msg.Value))

	require.Eventually(t, func() bool { return len(source.processed()) == 1 }, 5*time.Second, 100*time.Millisecond)
}
