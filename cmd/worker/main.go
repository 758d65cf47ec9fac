// cmd/worker/main.go
package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/superprospect/prospector-backend/internal/config"
	"github.com/superprospect/prospector-backend/internal/db"
	"github.com/superprospect/prospector-backend/internal/queue"
	"github.com/superprospect/prospector-backend/internal/repository"
	"github.com/superprospect/prospector-backend/internal/service"
	"github.com/superprospect/prospector-backend/internal/webhook"
)

const maxDeliveries = 3

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db.Init(cfg)

	genJobRepo := &repository.GenerationJobRepository{DB: db.DB}
	webhookClient := webhook.NewClient(
		cfg.SendingWebhookURL,
		cfg.GenerationWebhookURL,
		time.Duration(cfg.SendTimeoutSeconds)*time.Second,
	)
	worker := service.NewGenerationWorker(genJobRepo, webhookClient)

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AmqpURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.GenerationQueue, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var msg queue.GenerationMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			if err := worker.Process(msg); err != nil {
				deliveries := deliveryCount(d.Headers)
				if deliveries < maxDeliveries {
					requeue(ch, q.Name, d.Body, deliveries+1)
				} else {
					log.Printf("Job %s dropped after %d attempts", msg.JobID, deliveries)
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for generation jobs...")
	<-forever
}

// deliveryCount reads the republish counter; first delivery counts as 1.
func deliveryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 1
	}
}

func requeue(ch *amqp.Channel, queueName string, body []byte, attempt int) {
	err := ch.Publish(
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{"x-retry-count": int32(attempt)},
			Body:         body,
		},
	)
	if err != nil {
		log.Println("Failed to requeue job:", err)
	}
}
