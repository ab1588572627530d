package play

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestManager(t *testing.T) {
	Convey("Given a manager without reaping", t, func() {
		m := NewManager(context.Background(), testCatalog(), WithIdleTimeout(0),
			WithSessionOptions(WithTickInterval(time.Hour)))
		defer m.Shutdown()

		s := m.Open()
		So(m.Len(), ShouldEqual, 1)
		got, ok := m.Get(s.ID())
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, s)

		Convey("Opened sessions play rounds", func() {
			So(s.Send(context.Background(), StartRequested{Challenge: "2"}), ShouldBeNil)
			So(next(s, TypeRoundStarted).(RoundStartedMessage).Challenge, ShouldEqual, "2")
		})

		Convey("Closing a session removes it", func() {
			m.Close(s.ID())
			<-s.Done()
			So(waitFor(func() bool { return m.Len() == 0 }), ShouldBeTrue)
			_, ok := m.Get(s.ID())
			So(ok, ShouldBeFalse)
			m.Close("unknown")
		})

		Convey("Idle sessions are reaped", func() {
			other := m.Open()
			So(m.reap(time.Now().Add(time.Minute)), ShouldEqual, 2)
			<-other.Done()
			So(waitFor(func() bool { return m.Len() == 0 }), ShouldBeTrue)
		})

		Convey("Recent sessions survive reaping", func() {
			So(m.reap(time.Now().Add(-time.Minute)), ShouldEqual, 0)
			So(m.GetStats()["sessions"], ShouldEqual, 1)
		})

		Convey("Shutdown stops everything", func() {
			m.Shutdown()
			<-s.Done()
			So(m.Len(), ShouldEqual, 0)
		})
	})
}
