package middleware

import (
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

var (
	panelClients = make(map[string]mqtt.Client)
	clientMutex  sync.RWMutex
	mqttClient   mqtt.Client
	brokerURL    = "tcp://0.0.0.0:1883" // default MQTT broker URL
)

// MQTT message handler for panel devices
var messagePubHandler mqtt.MessageHandler = func(client mqtt.Client, msg mqtt.Message) {
	log.Debug().Str("topic", msg.Topic()).Msg("received MQTT message")
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// SetBrokerURL allows configuration of the MQTT broker URL
func SetBrokerURL(url string) {
	brokerURL = url
}

// CreateMQTTClient initializes and connects an MQTT client
func CreateMQTTClient(clientName string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientName)
	opts.SetDefaultPublishHandler(messagePubHandler)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	mqttClient = client
	return client, nil
}

// RegisterPanel connects a panel device and subscribes it to its command
// topic so it hears about content updates.
func RegisterPanel(deviceID string) error {
	client, err := CreateMQTTClient(fmt.Sprintf("panel-%s", deviceID))
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("panel/%s/commands", deviceID)
	if token := client.Subscribe(topic, 1, nil); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return fmt.Errorf("failed to subscribe panel %s to %s: %v", deviceID, topic, token.Error())
	}

	clientMutex.Lock()
	panelClients[deviceID] = client
	clientMutex.Unlock()

	log.Info().Str("device_id", deviceID).Msg("panel connected over MQTT")
	return nil
}

// SendMessageToPanel sends a message to a specific panel via MQTT
func SendMessageToPanel(deviceID string, message []byte) error {
	clientMutex.RLock()
	client, exists := panelClients[deviceID]
	clientMutex.RUnlock()
	if !exists {
		return fmt.Errorf("panel %s not connected", deviceID)
	}
	topic := fmt.Sprintf("panel/%s/commands", deviceID)
	token := client.Publish(topic, 1, false, message)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to send message to panel %s: %v", deviceID, token.Error())
	}
	return nil
}

// NotifyPanelRefresh tells a panel its display content changed and it should
// re-fetch.
func NotifyPanelRefresh(deviceID string, displayID int) error {
	payload, err := json.Marshal(map[string]any{
		"action":     "refresh",
		"display_id": displayID,
	})
	if err != nil {
		return err
	}
	return SendMessageToPanel(deviceID, payload)
}

// DisconnectPanel disconnects a specific panel device
func DisconnectPanel(deviceID string) {
	clientMutex.Lock()
	defer clientMutex.Unlock()

	if client, exists := panelClients[deviceID]; exists {
		client.Disconnect(250)
		delete(panelClients, deviceID)
		log.Info().Str("device_id", deviceID).Msg("panel disconnected from MQTT")
	}
}

// GetConnectedPanels returns the device IDs of connected panels
func GetConnectedPanels() []string {
	clientMutex.RLock()
	defer clientMutex.RUnlock()

	devices := make([]string, 0, len(panelClients))
	for deviceID := range panelClients {
		devices = append(devices, deviceID)
	}
	return devices
}

// CleanupMQTT disconnects all panel clients and the main MQTT client
func CleanupMQTT() {
	clientMutex.Lock()
	defer clientMutex.Unlock()

	for deviceID, client := range panelClients {
		client.Disconnect(250)
		log.Info().Str("device_id", deviceID).Msg("disconnected panel")
	}
	panelClients = make(map[string]mqtt.Client)

	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
}
