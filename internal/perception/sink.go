package perception

import "context"

// DebugSink is an optional out-of-band channel for watching identification
// decisions live without the core depending on any one chat platform or
// UI. PlanEngine pushes one text line per identification attempt (screen
// name and whether it matched); the perception functions push nothing, and
// no crops, scores or recognized text are sent.
type DebugSink interface {
	PushText(ctx context.Context, text string) error
	PushImage(ctx context.Context, caption string, png []byte) error
}

// MultiSink fans a push out to every configured sink, logging (not
// failing) individual sink errors — a debug channel going down must never
// affect navigation.
type MultiSink struct {
	Sinks []DebugSink
	OnErr func(sink DebugSink, err error)
}

func (m *MultiSink) PushText(ctx context.Context, text string) error {
	for _, s := range m.Sinks {
		if err := s.PushText(ctx, text); err != nil && m.OnErr != nil {
			m.OnErr(s, err)
		}
	}
	return nil
}

func (m *MultiSink) PushImage(ctx context.Context, caption string, png []byte) error {
	for _, s := range m.Sinks {
		if err := s.PushImage(ctx, caption, png); err != nil && m.OnErr != nil {
			m.OnErr(s, err)
		}
	}
	return nil
}
