// Package transporttest provides a scripted transport for tests.
package transporttest

import (
	"github.com/but80/scpilab/transport"
	"github.com/pkg/errors"
)

// Mock records every Send and answers each Receive with the next queued
// response. When the queue is empty it answers with Repeat, or fails with
// transport.ErrTimeout if Repeat is nil.
type Mock struct {
	KindValue     transport.Kind
	FramingValue  transport.Framing
	ReadModeValue transport.ReadMode
	Responses     [][]byte
	Repeat        []byte
	SendErr       error

	Sent      [][]byte
	ReadSizes []int
	Receives  int
	Closed    bool
}

// New returns a socket-framed mock primed with responses.
func New(responses ...string) *Mock {
	m := &Mock{
		KindValue:    transport.KindSocket,
		FramingValue: transport.LineFraming,
	}
	for _, r := range responses {
		m.Responses = append(m.Responses, []byte(r))
	}
	return m
}

// NewRaw returns a mock with raw USB framing.
func NewRaw(responses ...string) *Mock {
	m := New(responses...)
	m.KindValue = transport.KindUSB
	m.FramingValue = transport.RawFraming
	return m
}

func (m *Mock) Kind() transport.Kind {
	return m.KindValue
}

func (m *Mock) Framing() transport.Framing {
	return m.FramingValue
}

func (m *Mock) ReadMode() transport.ReadMode {
	return m.ReadModeValue
}

func (m *Mock) Connect() error {
	return nil
}

func (m *Mock) Send(b []byte) error {
	if m.Closed {
		return errors.WithStack(transport.ErrClosed)
	}
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, append([]byte(nil), b...))
	return nil
}

func (m *Mock) Receive(maxBytes int) ([]byte, error) {
	if m.Closed {
		return nil, errors.WithStack(transport.ErrClosed)
	}
	m.Receives++
	m.ReadSizes = append(m.ReadSizes, maxBytes)
	if 0 < len(m.Responses) {
		r := m.Responses[0]
		m.Responses = m.Responses[1:]
		return r, nil
	}
	if m.Repeat != nil {
		return m.Repeat, nil
	}
	return nil, errors.WithStack(transport.ErrTimeout)
}

func (m *Mock) Close() error {
	m.Closed = true
	return nil
}

// SentStrings returns the recorded frames as strings.
func (m *Mock) SentStrings() []string {
	s := make([]string, len(m.Sent))
	for i, b := range m.Sent {
		s[i] = string(b)
	}
	return s
}
