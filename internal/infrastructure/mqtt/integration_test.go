package mqtt

import (
	"errors"
	"os"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/agentshell/internal/infrastructure/config"
)

// Tests in this file need a broker at 127.0.0.1:1883 and are skipped
// otherwise.

func brokerConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker:      config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: clientID},
		QoS:         1,
		TopicPrefix: "agentshell-test",
	}
}

func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	if os.Getenv("SKIP_MQTT_TESTS") != "" {
		t.Skip("SKIP_MQTT_TESTS set")
	}
	c, err := Connect(brokerConfig(clientID))
	if errors.Is(err, ErrConnectionFailed) {
		t.Skipf("MQTT broker not available: %v", err)
	}
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return c
}

func TestIntegration_PublishRetainedStatus(t *testing.T) {
	c := connectOrSkip(t, "agentshell-int-pub")
	defer c.Close() //nolint:errcheck // test cleanup

	topic := c.Topics().BackendStatus()
	want := `{"status":"running","pid":123}`
	if err := c.PublishRetained(topic, []byte(want)); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}

	// A late subscriber must see the retained message.
	got := make(chan string, 1)
	sub := pahomqtt.NewClient(pahomqtt.NewClientOptions().
		AddBroker("tcp://127.0.0.1:1883").
		SetClientID("agentshell-int-sub"))
	if tok := sub.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", tok.Error())
	}
	defer sub.Disconnect(100)

	sub.Subscribe(topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		select {
		case got <- string(m.Payload()):
		default:
		}
	})

	select {
	case payload := <-got:
		if payload != want {
			t.Errorf("retained payload = %s, want %s", payload, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained status not received")
	}
}

func TestIntegration_CloseDisconnects(t *testing.T) {
	c := connectOrSkip(t, "agentshell-int-close")
	if !c.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := c.PublishRetained(c.Topics().BackendStatus(), []byte("{}")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishRetained() after Close error = %v, want ErrNotConnected", err)
	}
}
