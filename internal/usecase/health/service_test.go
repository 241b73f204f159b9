package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockReadiness bool

func (m mockReadiness) Ready() bool { return bool(m) }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(Components{
		Embedding:   &mockChecker{},
		Generation:  &mockChecker{},
		Cache:       &mockPinger{},
		VectorStore: mockReadiness(true),
	})
	r := svc.Check(context.Background())

	assert.Equal(t, Healthy, r.Status)
	assert.Equal(t, map[string]CheckResult{
		"embedding":    CheckOK,
		"generation":   CheckOK,
		"cache":        CheckOK,
		"vector_store": CheckOK,
	}, r.Checks)
}

func TestCheck_CacheErrorIsDegraded(t *testing.T) {
	svc := New(Components{
		Embedding:  &mockChecker{},
		Generation: &mockChecker{},
		Cache:      &mockPinger{err: errors.New("conn refused")},
	})
	r := svc.Check(context.Background())

	assert.Equal(t, Degraded, r.Status)
	assert.Equal(t, CheckError, r.Checks["cache"])
	assert.Equal(t, CheckOK, r.Checks["embedding"])
}

func TestCheck_ModelErrorIsUnhealthy(t *testing.T) {
	tests := []struct {
		name string
		c    Components
	}{
		{"embedding", Components{Embedding: &mockChecker{err: errors.New("401")}, Generation: &mockChecker{}}},
		{"generation", Components{Embedding: &mockChecker{}, Generation: &mockChecker{err: errors.New("timeout")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.c).Check(context.Background())
			assert.Equal(t, Unhealthy, r.Status)
			assert.Equal(t, CheckError, r.Checks[tt.name])
		})
	}
}

func TestCheck_PendingVectorStoreIsHealthy(t *testing.T) {
	svc := New(Components{Embedding: &mockChecker{}, VectorStore: mockReadiness(false)})
	r := svc.Check(context.Background())

	assert.Equal(t, Healthy, r.Status)
	assert.Equal(t, CheckPending, r.Checks["vector_store"])
}

func TestCheck_NilComponentsSkipped(t *testing.T) {
	r := New(Components{}).Check(context.Background())

	assert.Equal(t, Healthy, r.Status)
	assert.Empty(t, r.Checks)
}
