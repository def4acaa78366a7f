package activitymap

import (
	"context"
	"strings"
	"time"

	talent "github.com/goliatone/go-talent-session"
	"go.uber.org/zap"
)

// Metadata keys added from the event fields. Keys already present in the
// event metadata win.
const (
	MetadataKeyRole      = "role"
	MetadataKeyFromState = "from_state"
	MetadataKeyToState   = "to_state"
)

const (
	defaultChannel = "session"
	objectType     = "session"
	anonymousActor = "anonymous"
)

// Normalized is a transport agnostic audit record of a session event.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type"`
	Channel    string         `json:"channel"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization.
type Option func(*options)

type options struct {
	channel       string
	actorFallback string
}

// WithChannel tags records with the surface that produced them, e.g. "cli".
func WithChannel(channel string) Option {
	return func(o *options) {
		if c := strings.TrimSpace(channel); c != "" {
			o.channel = c
		}
	}
}

// WithActorFallback sets the actor used for events without a user, such as
// a failed login.
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		if a := strings.TrimSpace(actorID); a != "" {
			o.actorFallback = a
		}
	}
}

// Normalize maps a session activity event to its audit record.
func Normalize(event talent.ActivityEvent, opts ...Option) Normalized {
	o := options{channel: defaultChannel, actorFallback: anonymousActor}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	actor := strings.TrimSpace(event.UserID)
	if actor == "" {
		actor = o.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actor,
		Verb:       string(event.EventType),
		ObjectType: objectType,
		Channel:    o.channel,
		Metadata:   metadataOf(event),
		OccurredAt: occurredAt,
	}
}

// NewLogSink returns an activity sink writing each event as one structured
// audit line.
func NewLogSink(logger *zap.Logger, opts ...Option) talent.ActivitySink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return talent.ActivitySinkFunc(func(_ context.Context, event talent.ActivityEvent) error {
		n := Normalize(event, opts...)
		logger.Info("session activity",
			zap.String("actor_id", n.ActorID),
			zap.String("verb", n.Verb),
			zap.String("object_type", n.ObjectType),
			zap.String("channel", n.Channel),
			zap.Any("metadata", n.Metadata),
			zap.Time("occurred_at", n.OccurredAt),
		)
		return nil
	})
}

func metadataOf(event talent.ActivityEvent) map[string]any {
	var out map[string]any
	if len(event.Metadata) > 0 {
		out = make(map[string]any, len(event.Metadata)+3)
		for k, v := range event.Metadata {
			out[k] = v
		}
	}

	add := func(key, value string) {
		if value == "" {
			return
		}
		if out == nil {
			out = map[string]any{}
		}
		if _, ok := out[key]; !ok {
			out[key] = value
		}
	}
	add(MetadataKeyRole, string(event.Role))
	add(MetadataKeyFromState, string(event.FromState))
	add(MetadataKeyToState, string(event.ToState))

	return out
}
