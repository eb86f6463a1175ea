package di

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strconv"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/segmentio/kafka-go"
)

// NotificationTopic carries every outbound notification event: booking
// requests, status changes, reminders, and contact inquiries. A consumer
// service turns them into mail; this process never sends anything itself.
const NotificationTopic = "clinic_notifications"

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(broker string) (*KafkaProducer, error) {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      []string{broker},
		Topic:        NotificationTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireOne),
	})
	return &KafkaProducer{writer: writer}, nil
}

// Publish writes one notification event, keyed by type so a partition
// keeps related events ordered.
func (kp *KafkaProducer) Publish(event domain.NotificationEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: message,
	}
	if err := kp.writer.WriteMessages(context.Background(), msg); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// EnsureTopicExists creates the notification topic if the broker does not
// have it yet. Startup is not aborted on failure; publishing will retry.
func EnsureTopicExists(broker, topic string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		log.Printf("kafka dial failed, topic %s not ensured: %v", topic, err)
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		log.Printf("kafka controller lookup failed: %v", err)
		return
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		log.Printf("kafka controller dial failed: %v", err)
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		log.Printf("create topic %s: %v", topic, err)
	}
}
