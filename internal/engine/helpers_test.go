package engine_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/claude/trainplan/internal/engine"
	"github.com/claude/trainplan/internal/engine/enginetest"
)

// fixedRand always draws min(v, n-1).
type fixedRand int

func (r fixedRand) IntN(n int) int { return min(int(r), n-1) }

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(store *enginetest.Store, opts ...engine.Option) *engine.Engine {
	opts = append([]engine.Option{engine.WithClock(func() time.Time { return testNow })}, opts...)
	return engine.New(store, testLogger(), opts...)
}

// day returns midnight UTC offset days from testNow.
func day(offset int) time.Time {
	y, m, d := testNow.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, time.UTC)
}
