package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracerNilSafe(t *testing.T) {
	var tr *Tracer
	tr.Tracef("should not panic")
	tr.Submit()
}

func TestAddTracerDisabledAboveTrace(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(DebugLevel)
	_, tr := AddTracer(context.Background())
	assert.Nil(t, tr)

	SetLevel(TraceLevel)
	ctx, tr2 := AddTracer(context.Background())
	assert.NotNil(t, tr2)
	assert.Same(t, tr2, Tracer(ctx))
}
