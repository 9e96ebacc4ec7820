//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/district-stress-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/district-stress-dashboard/internal/config"
	"github.com/couchcryptid/district-stress-dashboard/internal/dashboard"
	"github.com/couchcryptid/district-stress-dashboard/internal/dataset"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
	"github.com/couchcryptid/district-stress-dashboard/internal/observability"
)

const (
	kafkaImage      = "confluentinc/confluent-local:7.5.0"
	testOrdersTopic = "test-district-orders"
	fixturePath     = "../dataset/testdata/districts.csv"
)

// publishedOrder holds a deserialized message read from the orders topic.
type publishedOrder struct {
	Order   kafka.Order
	Key     string
	Headers map[string]string
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("district-dashboard-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readOrder reads a single message from the consumer and deserializes it.
func readOrder(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedOrder {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from orders topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var order kafka.Order
	require.NoError(t, json.Unmarshal(msg.Value, &order), "unmarshal order")

	return publishedOrder{Order: order, Key: string(msg.Key), Headers: headers}
}

// TestPublishDeploymentSchedule loads the fixture dataset, runs a stress test
// through the dashboard service, and publishes the resulting schedule.
func TestPublishDeploymentSchedule(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testOrdersTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{
		KafkaEnabled:     true,
		KafkaBrokers:     []string{broker},
		KafkaOrdersTopic: testOrdersTopic,
	}

	store := dataset.NewStore(dataset.NewFileLoader(fixturePath, nil), logger, metrics)
	_, err := store.Load(ctx)
	require.NoError(t, err)
	svc := dashboard.NewService(store, domain.DefaultPolicy(), 8, metrics, logger)

	q := dashboard.Query{
		Region:   "Odisha",
		Scenario: domain.Scenario{Mode: domain.ModeStressTest, Multiplier: 2},
	}
	orders, err := svc.Schedule(ctx, q)
	require.NoError(t, err)
	require.Len(t, orders.Records, 2)

	publisher := kafka.NewPublisher(cfg, metrics, logger)
	n, err := publisher.PublishOrders(ctx, q.Region, orders.Outcome.Scenario, orders.Records)
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
	assert.Equal(t, 2, n)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testOrdersTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer consumer.Close()

	first := readOrder(ctx, t, consumer)
	assert.Equal(t, "Odisha|Puri", first.Key)
	assert.Equal(t, "Odisha", first.Headers["region"])
	assert.Equal(t, "CRITICAL", first.Headers["priority"])
	assert.Equal(t, "stress", first.Headers["scenario"])
	_, err = time.Parse(time.RFC3339, first.Headers["published_at"])
	require.NoError(t, err)
	assert.Equal(t, "Puri", first.Order.District.District)
	assert.InDelta(t, 6.0, first.Order.Stress, 1e-9)
	assert.Equal(t, domain.ModeStressTest, first.Order.Scenario.Mode)

	second := readOrder(ctx, t, consumer)
	assert.Equal(t, "Odisha|Cuttack", second.Key)
	assert.Equal(t, "High", second.Headers["priority"])
}
