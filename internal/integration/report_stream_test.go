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

	"github.com/couchcryptid/river-height-service/internal/adapter/kafka"
	"github.com/couchcryptid/river-height-service/internal/adapter/store"
	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/matcher"
	"github.com/couchcryptid/river-height-service/internal/observability"
	"github.com/couchcryptid/river-height-service/internal/reports"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testReportsTopic = "test-flood-reports"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// TestReportSubmissionPublishes submits a report through the service backed by
// sqlite and a real broker, then reads the event back from the topic.
func TestReportSubmissionPublishes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportsTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	db, err := store.Open(store.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reportedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Tides().Insert(ctx, []domain.TideSample{
		{Moment: reportedAt.Add(-10 * time.Minute), Kind: domain.KindReading, Value: 2.9},
		{Moment: reportedAt.Add(20 * time.Minute), Kind: domain.KindReading, Value: 3.1},
	}))

	publisher := kafka.NewReportPublisher([]string{broker}, testReportsTopic, logger)
	t.Cleanup(func() { _ = publisher.Close() })

	svc := reports.NewService(db.Reports(), matcher.New(db.Tides(), logger, metrics), publisher, logger, metrics)
	created, err := svc.Submit(ctx, domain.ReportInput{
		Location:  &domain.Location{Latitude: -34.43, Longitude: -58.56},
		Timestamp: reportedAt.Format(time.RFC3339),
		State:     domain.StateLowFlood,
	})
	require.NoError(t, err)
	require.NotNil(t, created.TideHeight)
	assert.InDelta(t, 2.9, *created.TideHeight, 1e-9)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportsTopic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer consumer.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from reports topic")

	assert.Equal(t, created.ID, string(msg.Key))
	var event domain.FloodReport
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, domain.StateLowFlood, event.State)
	require.NotNil(t, event.TideHeightTimestamp)
	assert.True(t, reportedAt.Add(-10*time.Minute).Equal(*event.TideHeightTimestamp))
}
