package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	kafkautils "github.com/nimeshabuddhika/treasury-desk/pkg/kafka"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/configs"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/observability"
	"go.uber.org/zap"
)

// OrderEventPublisher is a sink for order lifecycle events.
type OrderEventPublisher interface {
	Name() string
	PublishOrderEvent(ctx context.Context, event views.OrderEvent) error
	Close()
}

// eventProducer is the part of *kafka.Producer the publisher drives.
type eventProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type KafkaPublisherImpl struct {
	logger     *zap.Logger
	producer   eventProducer
	topic      string
	partitions int
}

// NewKafkaPublisher ensures the order topic exists and creates an idempotent producer.
func NewKafkaPublisher(logger *zap.Logger, ctx context.Context, cnf *configs.Config) (OrderEventPublisher, error) {
	brokers := strings.Join(kafkautils.Brokers(cnf.KafkaBrokers), ",")
	topicConfig := kafkautils.KafkaConfig{
		BootstrapServers: brokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.KafkaOrderTopic,
				NumPartitions:     cnf.KafkaPartition,
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", (7 * 24 * time.Hour).Milliseconds()),
				},
			},
		},
		MaxElapsed: 30 * time.Second,
	}
	if err := kafkautils.InitKafkaTopics(logger, ctx, topicConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize kafka topics: %w", err)
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               "all",
		"enable.idempotence": "true",
		"retries":            "3",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("kafka_producer_created", zap.String("brokers", brokers), zap.String("topic", cnf.KafkaOrderTopic))
	go handleDeliveryReports(logger, p)
	return &KafkaPublisherImpl{
		logger:     logger,
		producer:   p,
		topic:      cnf.KafkaOrderTopic,
		partitions: cnf.KafkaPartition,
	}, nil
}

func (k *KafkaPublisherImpl) Name() string { return "kafka" }

func (k *KafkaPublisherImpl) PublishOrderEvent(_ context.Context, event views.OrderEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.topic,
			Partition: partitionFor(event.Order.ID, k.partitions),
		},
		Key:   []byte(strconv.FormatInt(event.Order.ID, 10)),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: pkg.HeaderTraceId, Value: []byte(event.TraceID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil)
}

func (k *KafkaPublisherImpl) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}

// partitionFor keeps every event of one order on one partition.
func partitionFor(orderID int64, partitions int) int32 {
	if partitions <= 1 {
		return 0
	}
	return int32(orderID % int64(partitions))
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				observability.OrderEventsPublished.WithLabelValues("kafka", "delivery_failed").Inc()
				logger.Error("kafka_delivery_failed", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}
