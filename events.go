package quorum

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/tendermint/tendermint/libs/common"
)

// Event is an observable side effect of a committed operation. Attributes
// are ordered key value pairs, the same representation tendermint uses for
// transaction tags.
type Event struct {
	Type       string
	Attributes common.KVPairs
}

// NewEvent returns an event of given type. Attributes are provided as
// alternating key and value arguments. Values can be strings, byte slices,
// addresses, fmt.Stringer implementations or unsigned integers.
func NewEvent(typ string, keyvals ...interface{}) Event {
	if len(keyvals)%2 != 0 {
		panic(fmt.Sprintf("event %q: odd number of attribute arguments", typ))
	}
	attrs := make(common.KVPairs, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			panic(fmt.Sprintf("event %q: attribute key %v is not a string", typ, keyvals[i]))
		}
		attrs = append(attrs, common.KVPair{Key: []byte(key), Value: attrValue(keyvals[i+1])})
	}
	return Event{Type: typ, Attributes: attrs}
}

func attrValue(v interface{}) []byte {
	switch v := v.(type) {
	case Address:
		return []byte(v.String())
	case []byte:
		return []byte(fmt.Sprintf("%X", v))
	case string:
		return []byte(v)
	case uint64:
		return []byte(strconv.FormatUint(v, 10))
	case uint32:
		return []byte(strconv.FormatUint(uint64(v), 10))
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(fmt.Sprint(v))
	}
}

// Attr returns the value of the first attribute with given key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if string(a.Key) == key {
			return string(a.Value), true
		}
	}
	return "", false
}

// Tags returns all attributes prefixed with the event type, in the form of
// tendermint tags, for example "TransactionExecuted.id".
func (e Event) Tags() common.KVPairs {
	tags := make(common.KVPairs, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		tags = append(tags, common.KVPair{
			Key:   []byte(e.Type + "." + string(a.Key)),
			Value: a.Value,
		})
	}
	return tags
}

// Keyvals returns the attributes in the alternating key value form expected
// by a log.Logger.
func (e Event) Keyvals() []interface{} {
	kv := make([]interface{}, 0, 2+2*len(e.Attributes))
	kv = append(kv, "event", e.Type)
	for _, a := range e.Attributes {
		kv = append(kv, string(a.Key), string(a.Value))
	}
	return kv
}

// EventSink receives events of committed operations. Events are published in
// the order in which they were emitted.
type EventSink interface {
	Publish(Event)
}

// EventLog is an EventSink that keeps all published events in memory. It is
// safe for concurrent use.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

var _ EventSink = (*EventLog)(nil)

// Publish appends the event to the log.
func (l *EventLog) Publish(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// Events returns a copy of all published events.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]Event, len(l.events))
	copy(res, l.events)
	return res
}

// OfType returns all published events of given type.
func (l *EventLog) OfType(typ string) []Event {
	var res []Event
	for _, e := range l.Events() {
		if e.Type == typ {
			res = append(res, e)
		}
	}
	return res
}

// Reset drops all collected events.
func (l *EventLog) Reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

// NopSink drops all events.
type NopSink struct{}

// Publish is a noop.
func (NopSink) Publish(Event) {}
