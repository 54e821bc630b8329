package broker

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/udisondev/jlud/pkg/auth"
)

// Record: событие в том виде, в каком оно уходит в NATS.
type Record struct {
	User     string
	Kind     string
	Phase    string
	Prev     string
	Attempt  int
	Packet   string
	Sequence int
	Error    string
	Time     time.Time
}

func newRecord(user string, e auth.Event) Record {
	r := Record{
		User:     user,
		Kind:     e.Kind.String(),
		Phase:    e.Phase.String(),
		Attempt:  e.Attempt,
		Packet:   e.Packet,
		Sequence: int(e.Sequence),
		Time:     e.Time,
	}
	if e.Kind == auth.EventPhase {
		r.Prev = e.Prev.String()
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	return r
}

// Marshal кодирует запись как protobuf Struct.
func (r Record) Marshal() ([]byte, error) {
	fields := map[string]any{
		"user":     r.User,
		"kind":     r.Kind,
		"phase":    r.Phase,
		"attempt":  r.Attempt,
		"sequence": r.Sequence,
		"time":     r.Time.UTC().Format(time.RFC3339Nano),
	}
	if r.Prev != "" {
		fields["prev"] = r.Prev
	}
	if r.Packet != "" {
		fields["packet"] = r.Packet
	}
	if r.Error != "" {
		fields["error"] = r.Error
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build event struct: %w", err)
	}
	return proto.Marshal(s)
}

// UnmarshalRecord разбирает запись, закодированную Record.Marshal.
func UnmarshalRecord(data []byte) (Record, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Record{}, fmt.Errorf("unmarshal event: %w", err)
	}

	f := s.GetFields()
	r := Record{
		User:     f["user"].GetStringValue(),
		Kind:     f["kind"].GetStringValue(),
		Phase:    f["phase"].GetStringValue(),
		Prev:     f["prev"].GetStringValue(),
		Attempt:  int(f["attempt"].GetNumberValue()),
		Packet:   f["packet"].GetStringValue(),
		Sequence: int(f["sequence"].GetNumberValue()),
		Error:    f["error"].GetStringValue(),
	}
	if ts := f["time"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Record{}, fmt.Errorf("parse event time: %w", err)
		}
		r.Time = t
	}
	return r, nil
}
