package notify

import "github.com/streadway/amqp"

// AMQPSink publishes notification envelopes to RabbitMQ fanout
// exchanges, one exchange per restaurant.
type AMQPSink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPSink connects to RabbitMQ.
func NewAMQPSink(amqpURL string) (*AMQPSink, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPSink{conn: conn, channel: ch}, nil
}

// Publish publishes a message to the given exchange.
func (s *AMQPSink) Publish(exchange string, body []byte) error {
	err := s.channel.ExchangeDeclare(
		exchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	return s.channel.Publish(
		exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Close closes the RabbitMQ connection and channel.
func (s *AMQPSink) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
