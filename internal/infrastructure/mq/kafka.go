package mq

import (
	"log"

	"corebank/internal/config"

	"github.com/IBM/sarama"
)

// Producer wraps a synchronous Kafka producer used to publish ledger events.
type Producer struct {
	producer sarama.SyncProducer
}

// NewProducer creates a producer that waits for acknowledgement from all
// replicas before reporting success.
func NewProducer(cfg *config.KafkaConfig) *Producer {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		log.Fatalf("failed to create Kafka producer: %v", err)
	}

	log.Println("Kafka producer created")
	return &Producer{producer: producer}
}

func (p *Producer) Send(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
