package operators

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/draw"

	"github.com/teranos/snowcam"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// frame in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Frame is a downscaled RGB frame as streamed to LED matrices.
type Frame struct {
	Width, Height int
	Pix           []byte // RGB triplets, row major
}

// NewFrame scales img to width x height.
func NewFrame(img image.Image, width, height int) *Frame {
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	f := &Frame{Width: width, Height: height, Pix: make([]byte, 0, width*height*3)}
	for i := 0; i < len(scaled.Pix); i += 4 {
		f.Pix = append(f.Pix, scaled.Pix[i], scaled.Pix[i+1], scaled.Pix[i+2])
	}
	return f
}

// MarshalBinary encodes the frame as little-endian uint16 width and height
// followed by the RGB bytes.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if f.Width > 0xffff || f.Height > 0xffff {
		return nil, fmt.Errorf("frame %dx%d too large", f.Width, f.Height)
	}
	data := make([]byte, 4, 4+len(f.Pix))
	binary.LittleEndian.PutUint16(data[0:], uint16(f.Width))
	binary.LittleEndian.PutUint16(data[2:], uint16(f.Height))
	return append(data, f.Pix...), nil
}

// UnmarshalBinary decodes a frame written by MarshalBinary.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("frame header truncated: %d bytes", len(data))
	}
	w := int(binary.LittleEndian.Uint16(data[0:]))
	h := int(binary.LittleEndian.Uint16(data[2:]))
	if len(data)-4 != w*h*3 {
		return fmt.Errorf("frame %dx%d needs %d bytes, got %d", w, h, w*h*3, len(data)-4)
	}
	f.Width, f.Height = w, h
	f.Pix = append(f.Pix[:0], data[4:]...)
	return nil
}

// MQTTOperator publishes every Nth frame to a topic. A failed or timed
// out publish is returned to the director as a stumble.
type MQTTOperator struct {
	client  mqtt.Client
	config  snowcam.MQTTConfig
	every   int
	timeout time.Duration
	sent    int
}

// NewMQTTOperator streams frames through an already connected client.
func NewMQTTOperator(client mqtt.Client, config snowcam.MQTTConfig) *MQTTOperator {
	return &MQTTOperator{
		client:  client,
		config:  config,
		every:   1,
		timeout: 2 * time.Second,
	}
}

// WithEvery publishes every n frames and the last frame of each stage.
func (op *MQTTOperator) WithEvery(n int) *MQTTOperator {
	if n > 0 {
		op.every = n
	}
	return op
}

// WithTimeout bounds how long a publish may wait for the broker.
func (op *MQTTOperator) WithTimeout(d time.Duration) *MQTTOperator {
	op.timeout = d
	return op
}

// Sent returns the number of acknowledged frames.
func (op *MQTTOperator) Sent() int {
	return op.sent
}

// OnFrame implements snowcam.Observer.
func (op *MQTTOperator) OnFrame(info snowcam.FrameInfo) error {
	if info.Index%op.every != 0 && info.Frame != info.Frames-1 {
		return nil
	}
	if info.Image == nil {
		return snowcam.ErrNoFrame
	}

	payload, err := NewFrame(info.Image, op.config.Width, op.config.Height).MarshalBinary()
	if err != nil {
		return err
	}
	token := op.client.Publish(op.config.Topic, op.config.QoS, false, payload)
	if !token.WaitTimeout(op.timeout) {
		return fmt.Errorf("frame %d: %w", info.Index, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish frame %d: %w", info.Index, err)
	}
	op.sent++
	return nil
}

// DialMQTT connects a client for config and waits for the connection.
func DialMQTT(config snowcam.MQTTConfig, timeout time.Duration) (mqtt.Client, error) {
	options := mqtt.NewClientOptions().
		AddBroker(config.URL).
		SetClientID(config.ClientID).
		SetUsername(config.Username).
		SetPassword(config.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second)
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to %s: timed out after %s", config.URL, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", config.URL, err)
	}
	return client, nil
}
