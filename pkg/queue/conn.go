package queue

import (
	"errors"
	"fmt"

	"github.com/streadway/amqp"
)

// Conn is a broker connection with one channel.
type Conn struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

// Dial connects to the broker at url and opens a channel.
func Dial(url string) (*Conn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}
	return &Conn{conn: conn, Channel: ch}, nil
}

// Close closes the channel and the connection.
func (c *Conn) Close() error {
	return errors.Join(c.Channel.Close(), c.conn.Close())
}
