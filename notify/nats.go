// Package notify provides best-effort push notification of newly
// persisted events, layered on top of an eventry.ApplicationRecorder.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/zoobzio/eventry"
)

// wireNotification is the JSON envelope published to NATS. It carries the
// StoredEvent's opaque payload verbatim; subscribers that want the domain
// event must run it through the same Mapper used to write it.
type wireNotification struct {
	ID                uint64 `json:"id"`
	OriginatorID      string `json:"originator_id"`
	OriginatorVersion uint64 `json:"originator_version"`
	Topic             string `json:"topic"`
	State             []byte `json:"state"`
}

// NATSPublisher wraps an eventry.ApplicationRecorder, publishing each
// successfully inserted notification to NATS after the write completes.
// A publish failure never fails the write: it is reported via the
// eventry.SignalPublishFailed signal and otherwise swallowed, since the
// event is already durable in the recorder and can be recovered by
// replaying SelectNotifications.
type NATSPublisher struct {
	eventry.ApplicationRecorder
	conn            *nats.Conn
	subjectPrefix   string
	applicationName string
}

// Wrap returns a NATSPublisher that publishes to "{subjectPrefix}.{topic}"
// after every successful InsertEvents call on rec.
func Wrap(rec eventry.ApplicationRecorder, conn *nats.Conn, subjectPrefix, applicationName string) *NATSPublisher {
	return &NATSPublisher{
		ApplicationRecorder: rec,
		conn:                conn,
		subjectPrefix:       subjectPrefix,
		applicationName:     applicationName,
	}
}

func (p *NATSPublisher) InsertEvents(ctx context.Context, events []eventry.StoredEvent) ([]uint64, error) {
	ids, err := p.ApplicationRecorder.InsertEvents(ctx, events)
	if err != nil {
		return ids, err
	}
	p.publishAll(events, ids)
	return ids, nil
}

func (p *NATSPublisher) publishAll(events []eventry.StoredEvent, ids []uint64) {
	for i, e := range events {
		n := wireNotification{
			ID:                ids[i],
			OriginatorID:      e.OriginatorID.String(),
			OriginatorVersion: e.OriginatorVersion,
			Topic:             e.Topic,
			State:             e.State,
		}
		data, err := json.Marshal(n)
		if err != nil {
			eventry.EmitPublishFailed(p.applicationName, err)
			continue
		}

		subject := fmt.Sprintf("%s.%s", p.subjectPrefix, e.Topic)
		if err := p.conn.Publish(subject, data); err != nil {
			eventry.EmitPublishFailed(p.applicationName, err)
		}
	}
}

var _ eventry.ApplicationRecorder = (*NATSPublisher)(nil)
