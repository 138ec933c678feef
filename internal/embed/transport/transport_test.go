package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veriflow/internal/embed/protocol"
)

type PairSuite struct {
	suite.Suite
	host   HostSide
	widget WidgetSide
}

func TestPairSuite(t *testing.T) {
	suite.Run(t, new(PairSuite))
}

func (s *PairSuite) SetupTest() {
	s.host, s.widget = Pair(0)
}

func (s *PairSuite) TestEventDelivery() {
	s.Run("events arrive in emit order", func() {
		for _, ev := range []protocol.EventType{protocol.EventReady, protocol.EventStepChange, protocol.EventClose} {
			env, err := protocol.NewEvent(ev, nil)
			s.Require().NoError(err)
			s.Require().NoError(s.widget.Emit(env))
		}

		s.Equal(protocol.EventReady, (<-s.host.Events()).Event)
		s.Equal(protocol.EventStepChange, (<-s.host.Events()).Event)
		s.Equal(protocol.EventClose, (<-s.host.Events()).Event)
	})

	s.Run("commands reach the widget", func() {
		s.SetupTest()
		s.Require().NoError(s.host.Send(protocol.NewCommand(protocol.CommandRetry)))
		s.Equal(protocol.CommandRetry, <-s.widget.Commands())
	})
}

func (s *PairSuite) TestClose() {
	s.Run("either end closes both channels", func() {
		s.Require().NoError(s.widget.Close())

		_, ok := <-s.host.Events()
		s.False(ok)
		_, ok2 := <-s.widget.Commands()
		s.False(ok2)
	})

	s.Run("emit and send fail after close", func() {
		s.SetupTest()
		s.Require().NoError(s.host.Close())

		env, err := protocol.NewEvent(protocol.EventReady, nil)
		s.Require().NoError(err)
		s.Error(s.widget.Emit(env))
		s.Error(s.host.Send(protocol.NewCommand(protocol.CommandClose)))
	})

	s.Run("double close is a no-op", func() {
		s.SetupTest()
		s.Require().NoError(s.widget.Close())
		s.Require().NoError(s.host.Close())
	})
}

type WireSuite struct {
	suite.Suite
	host   *HostWire
	widget *WidgetWire
}

func TestWireSuite(t *testing.T) {
	suite.Run(t, new(WireSuite))
}

func (s *WireSuite) SetupTest() {
	hostConn, widgetConn := net.Pipe()
	s.host = NewHostWire(hostConn)
	s.widget = NewWidgetWire(widgetConn)
}

func (s *WireSuite) TearDownTest() {
	_ = s.host.Close()
	_ = s.widget.Close()
}

func (s *WireSuite) receiveEvent() protocol.Envelope {
	select {
	case env := <-s.host.Events():
		return env
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for event")
		return protocol.Envelope{}
	}
}

func (s *WireSuite) TestRoundTrip() {
	s.Run("event crosses the wire", func() {
		env, err := protocol.NewEvent(protocol.EventSuccess, protocol.SuccessData{SessionID: "sess-1", Passed: true, Score: 0.9})
		s.Require().NoError(err)

		go func() { _ = s.widget.Emit(env) }()

		got := s.receiveEvent()
		s.Equal(protocol.EventSuccess, got.Event)
		s.Equal("veriflow:event", got.Type)
	})

	s.Run("command crosses the wire", func() {
		go func() { _ = s.host.Send(protocol.NewCommand(protocol.CommandClose)) }()

		select {
		case cmd := <-s.widget.Commands():
			s.Equal(protocol.CommandClose, cmd)
		case <-time.After(2 * time.Second):
			s.FailNow("timed out waiting for command")
		}
	})
}

// TestForeignLinesDropped verifies that non-protocol traffic on the same
// connection never surfaces as events.
func (s *WireSuite) TestForeignLinesDropped() {
	hostConn, widgetConn := net.Pipe()
	s.T().Cleanup(func() { _ = hostConn.Close() })
	host := NewHostWire(hostConn)
	s.T().Cleanup(func() { _ = host.Close() })

	go func() {
		_, _ = widgetConn.Write([]byte("garbage line\n"))
		_, _ = widgetConn.Write([]byte(`{"type":"analytics:event","event":"ready"}` + "\n"))
		env, _ := protocol.NewEvent(protocol.EventReady, nil)
		w := NewWidgetWire(widgetConn)
		_ = w.Emit(env)
	}()

	select {
	case env := <-host.Events():
		s.Equal(protocol.EventReady, env.Event)
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for event")
	}
}
