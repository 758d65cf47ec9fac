package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// GenerationQueue is the RabbitMQ queue carrying email-generation jobs from
// schedule creation to the generation worker.
const GenerationQueue = "email_generation"

// GenerationMessage is the wire format for one generation job.
type GenerationMessage struct {
	JobID       string `json:"job_id"`
	CampaignID  int    `json:"campaign_id"`
	ProspectIDs []int  `json:"prospect_ids"`
}

// Publisher abstracts the job bus so services can be tested without a broker.
type Publisher interface {
	PublishGenerationJob(msg GenerationMessage) error
}

// AmqpPublisher publishes generation jobs to RabbitMQ.
type AmqpPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAmqpPublisher(url string) (*AmqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		GenerationQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AmqpPublisher{conn: conn, ch: ch}, nil
}

func (p *AmqpPublisher) PublishGenerationJob(msg GenerationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		GenerationQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *AmqpPublisher) Close() {
	p.ch.Close()
	p.conn.Close()
}

var _ Publisher = (*AmqpPublisher)(nil)
