//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mmynk/tiendapos/internal/models"
)

func startRabbitMQ(t *testing.T) *amqp.Connection {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	var conn *amqp.Connection
	require.Eventually(t, func() bool {
		conn, err = amqp.DialConfig("amqp://"+host+":"+port.Port()+"/", amqp.Config{
			Dial: amqp.DefaultDial(10 * time.Second),
		})
		return err == nil
	}, 60*time.Second, time.Second)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRabbitPublisher_StockLow(t *testing.T) {
	conn := startRabbitMQ(t)

	publisher, err := NewRabbitPublisher(conn, "pos.events.test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "stock.#", "pos.events.test", false, nil))
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	level := models.StockLevel{ProductID: "p-1", SKU: "SKU-000001", Name: "Arroz", Stock: 2, MinStock: 5}
	require.NoError(t, publisher.PublishStockLow(context.Background(), NewStockLow("biz-1", level, time.Now())))

	select {
	case msg := <-msgs:
		require.Equal(t, StockLowRoutingKey, msg.RoutingKey)
		var ev StockLow
		require.NoError(t, json.Unmarshal(msg.Body, &ev))
		require.Equal(t, "p-1", ev.ProductID)
		require.Equal(t, 2, ev.Stock)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for stock.low event")
	}
}
