package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doughlab/pizzeria/internal/domain/order"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "pizzeria:orders:u1", Channel("u1"))
}

func TestNopPublisher(t *testing.T) {
	var p order.Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "u1", order.Event{OrderID: "o1"}))
}

func TestNewRedisPublisher_BadURL(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), "not-a-url")
	assert.Error(t, err)
}
