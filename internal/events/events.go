// Package events publishes analysis-completed notifications.
package events

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"contract-risk-lab/internal/domain"
)

// TypeAnalysisCompleted is the event type header of AnalysisCompleted messages.
const TypeAnalysisCompleted = "analysis.completed"

// AnalysisCompleted is emitted once per stored analysis.
type AnalysisCompleted struct {
	Kind       domain.AnalysisKind
	Chain      domain.Chain
	Address    string
	Overall    int
	Tier       domain.RiskTier
	AnalyzedAt int64
	// Flags counts signals for contract analyses, red flags for creator
	// traces and patterns for interaction analyses.
	Flags int
}

// Key returns the partition key, so events of one address stay ordered.
func (e AnalysisCompleted) Key() []byte {
	return []byte(string(e.Chain) + ":" + e.Address)
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e AnalysisCompleted) error
	Close() error
}

// Encode serializes an event as a protobuf Struct.
func Encode(e AnalysisCompleted) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"type":        TypeAnalysisCompleted,
		"kind":        string(e.Kind),
		"chain":       string(e.Chain),
		"address":     e.Address,
		"overall":     e.Overall,
		"tier":        string(e.Tier),
		"analyzed_at": e.AnalyzedAt,
		"flags":       e.Flags,
	})
	if err != nil {
		return nil, fmt.Errorf("build event struct: %w", err)
	}
	value, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal event proto: %w", err)
	}
	return value, nil
}

// Decode parses an event produced by Encode.
func Decode(value []byte) (AnalysisCompleted, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return AnalysisCompleted{}, fmt.Errorf("unmarshal event proto: %w", err)
	}
	f := s.GetFields()
	if t := f["type"].GetStringValue(); t != TypeAnalysisCompleted {
		return AnalysisCompleted{}, fmt.Errorf("unexpected event type %q", t)
	}
	return AnalysisCompleted{
		Kind:       domain.AnalysisKind(f["kind"].GetStringValue()),
		Chain:      domain.Chain(f["chain"].GetStringValue()),
		Address:    f["address"].GetStringValue(),
		Overall:    int(f["overall"].GetNumberValue()),
		Tier:       domain.RiskTier(f["tier"].GetStringValue()),
		AnalyzedAt: int64(f["analyzed_at"].GetNumberValue()),
		Flags:      int(f["flags"].GetNumberValue()),
	}, nil
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, AnalysisCompleted) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []AnalysisCompleted
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e AnalysisCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []AnalysisCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AnalysisCompleted(nil), r.events...)
}

var (
	_ Publisher = Nop{}
	_ Publisher = (*Recorder)(nil)
	_ Publisher = (*KafkaPublisher)(nil)
)
