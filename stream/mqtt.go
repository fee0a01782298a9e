package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultPublishTimeout bounds how long a publish may hold up the loop.
const DefaultPublishTimeout = 2 * time.Second

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Publisher is the part of mqtt.Client used for streaming.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func wait(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// MQTTFrames publishes frames in the ledrx binary format.
type MQTTFrames struct {
	client  Publisher
	topic   string
	qos     byte
	Timeout time.Duration
}

// NewMQTTFrames creates a frame sink publishing to topic.
func NewMQTTFrames(client Publisher, topic string, qos byte) *MQTTFrames {
	m := new(MQTTFrames)
	m.client = client
	m.topic = topic
	m.qos = qos
	m.Timeout = DefaultPublishTimeout
	return m
}

// WriteFrame implements FrameSink.
func (m *MQTTFrames) WriteFrame(f *Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if err := wait(m.client.Publish(m.topic, m.qos, false, b), m.Timeout); err != nil {
		return fmt.Errorf("publishing frame to %s: %w", m.topic, err)
	}
	return nil
}

// MQTTRules publishes keyframe rules for the device to run natively. Each
// rule is retained under its own topic so a reconnecting device can fetch it.
type MQTTRules struct {
	client  Publisher
	topic   string
	Timeout time.Duration
}

// NewMQTTRules creates a rule sink publishing beneath topic.
func NewMQTTRules(client Publisher, topic string) *MQTTRules {
	m := new(MQTTRules)
	m.client = client
	m.topic = topic
	m.Timeout = DefaultPublishTimeout
	return m
}

// AddRules implements engine.RuleSink.
func (m *MQTTRules) AddRules(name, text string) error {
	topic := m.topic + "/" + name
	if err := wait(m.client.Publish(topic, 1, true, text), m.Timeout); err != nil {
		return fmt.Errorf("publishing rule to %s: %w", topic, err)
	}
	return nil
}

// MQTTAnimations publishes animation descriptors as JSON, retained per
// segment.
type MQTTAnimations struct {
	client  Publisher
	topic   string
	Timeout time.Duration
}

// NewMQTTAnimations creates a descriptor publisher beneath topic.
func NewMQTTAnimations(client Publisher, topic string) *MQTTAnimations {
	m := new(MQTTAnimations)
	m.client = client
	m.topic = topic
	m.Timeout = DefaultPublishTimeout
	return m
}

// PublishAnimation implements AnimationPublisher.
func (m *MQTTAnimations) PublishAnimation(d AnimationDescriptor) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	topic := m.topic + "/" + d.Segment
	if err := wait(m.client.Publish(topic, 1, true, b), m.Timeout); err != nil {
		return fmt.Errorf("publishing animation to %s: %w", topic, err)
	}
	return nil
}
