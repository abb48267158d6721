// Package params holds the mutable metadata of an observation session.
//
// A Store keeps an explicit tagged structure for the known session
// attributes plus an open, ordered extension mapping for caller-supplied
// extras. Values are checked for type category only (string, number,
// boolean, list); domain semantics of freeform text are not validated.
//
// The Store serializes to and from the persisted snapshot document with
// a deterministic key order, so repeated serializations of equal state
// are byte-identical. Persistence itself is the caller's responsibility.
package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Known attribute keys. The key strings double as the field names in the
// persisted snapshot and the metadata preamble of the line document.
const (
	KeyName                 = "name"
	KeyObserver             = "observer"
	KeyLocationDescription  = "locationDescription"
	KeyLongitude            = "longitude"
	KeyLatitude             = "latitude"
	KeyTranscription        = "transcription"
	KeyListOfGear           = "listOfGear"
	KeyProject              = "project"
	KeyTarget               = "target"
	KeyCommentary           = "commentary"
	KeyDigitized            = "digitized"
	KeyObjective            = "objective"
	KeyDigitizer            = "digitizer"
	KeyState                = "state"
	KeyInterrupted          = "interrupted"
	KeySessionID            = "sessionID"
	KeyConditionDescription = "conditionDescription"
	KeyTemp                 = "temp"
	KeyPressure             = "pressure"
	KeyHumidity             = "humidity"
)

// ErrValueType is returned when a value does not match the type category
// required for its key (e.g., a string latitude or a scalar gear list).
var ErrValueType = errors.New("invalid value type")

// KV is one key/value pair of a snapshot, in serialization order.
type KV struct {
	Key   string
	Value any
}

// Known is the tagged structure of recognized session attributes.
// String fields are unset when empty; pointer fields are unset when nil.
type Known struct {
	Name                 string
	Observer             string
	LocationDescription  string
	Longitude            *float64
	Latitude             *float64
	Transcription        string
	ListOfGear           []any
	Project              string
	Target               string
	Commentary           string
	Digitized            *bool
	Objective            string
	Digitizer            string
	ConditionDescription *string
	Temp                 *float64
	Pressure             *float64
	Humidity             *float64
}

// Store is the in-memory metadata snapshot of one session.
// The zero value is not usable; construct with New.
type Store struct {
	SessionID   string
	State       string // "", "running", "aborted" or "ended"
	Interrupted bool

	Known Known

	extraKeys []string
	extras    map[string]any
}

// New returns an empty Store.
func New() *Store {
	return &Store{extras: make(map[string]any)}
}

// Set assigns a value to a key. Known keys are checked against their
// required type category; unknown keys are kept in the extension mapping
// in insertion order. A nil value clears the key.
func (s *Store) Set(key string, value any) error {
	switch key {
	case KeyName:
		return setString(key, value, &s.Known.Name)
	case KeyObserver:
		return setString(key, value, &s.Known.Observer)
	case KeyLocationDescription:
		return setString(key, value, &s.Known.LocationDescription)
	case KeyTranscription:
		return setString(key, value, &s.Known.Transcription)
	case KeyProject:
		return setString(key, value, &s.Known.Project)
	case KeyTarget:
		return setString(key, value, &s.Known.Target)
	case KeyCommentary:
		return setString(key, value, &s.Known.Commentary)
	case KeyObjective:
		return setString(key, value, &s.Known.Objective)
	case KeyDigitizer:
		return setString(key, value, &s.Known.Digitizer)
	case KeyLongitude:
		return setNumber(key, value, &s.Known.Longitude)
	case KeyLatitude:
		return setNumber(key, value, &s.Known.Latitude)
	case KeyTemp:
		return setNumber(key, value, &s.Known.Temp)
	case KeyPressure:
		return setNumber(key, value, &s.Known.Pressure)
	case KeyHumidity:
		return setNumber(key, value, &s.Known.Humidity)
	case KeyListOfGear:
		if value == nil {
			s.Known.ListOfGear = nil
			return nil
		}
		list, ok := asList(value)
		if !ok {
			return fmt.Errorf("%w: %s must be a list", ErrValueType, key)
		}
		s.Known.ListOfGear = list
		return nil
	case KeyDigitized:
		if value == nil {
			s.Known.Digitized = nil
			return nil
		}
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrValueType, key)
		}
		s.Known.Digitized = &b
		return nil
	case KeyConditionDescription:
		if value == nil {
			s.Known.ConditionDescription = nil
			return nil
		}
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string", ErrValueType, key)
		}
		s.Known.ConditionDescription = &str
		return nil
	case KeySessionID:
		return setString(key, value, &s.SessionID)
	case KeyState:
		return setString(key, value, &s.State)
	case KeyInterrupted:
		if value == nil {
			s.Interrupted = false
			return nil
		}
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrValueType, key)
		}
		s.Interrupted = b
		return nil
	}

	// Unknown key — extension mapping. Values must still be of a
	// category that round-trips through the persisted format.
	if value == nil {
		s.deleteExtra(key)
		return nil
	}
	if !validCategory(value) {
		return fmt.Errorf("%w: %s must be a string, number, boolean or list", ErrValueType, key)
	}
	if _, exists := s.extras[key]; !exists {
		s.extraKeys = append(s.extraKeys, key)
	}
	s.extras[key] = value
	return nil
}

// Get returns the value stored for a key and whether the key is set.
func (s *Store) Get(key string) (any, bool) {
	for _, kv := range s.Snapshot() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

func (s *Store) deleteExtra(key string) {
	if _, exists := s.extras[key]; !exists {
		return
	}
	delete(s.extras, key)
	for i, k := range s.extraKeys {
		if k == key {
			s.extraKeys = append(s.extraKeys[:i], s.extraKeys[i+1:]...)
			break
		}
	}
}

// Snapshot returns the full metadata state as an ordered key/value list:
// known attributes in canonical order (unset optional attributes are
// omitted), extras in insertion order, then the lifecycle flags and the
// latest condition fields, which are always present. The order is
// deterministic so serialization is reproducible.
func (s *Store) Snapshot() []KV {
	kvs := make([]KV, 0, 20+len(s.extraKeys))

	appendSet := func(key, v string) {
		if v != "" {
			kvs = append(kvs, KV{key, v})
		}
	}
	appendSet(KeyName, s.Known.Name)
	appendSet(KeyObserver, s.Known.Observer)
	appendSet(KeyLocationDescription, s.Known.LocationDescription)
	if s.Known.Longitude != nil {
		kvs = append(kvs, KV{KeyLongitude, *s.Known.Longitude})
	}
	if s.Known.Latitude != nil {
		kvs = append(kvs, KV{KeyLatitude, *s.Known.Latitude})
	}
	appendSet(KeyTranscription, s.Known.Transcription)
	if s.Known.ListOfGear != nil {
		kvs = append(kvs, KV{KeyListOfGear, s.Known.ListOfGear})
	}
	appendSet(KeyProject, s.Known.Project)
	appendSet(KeyTarget, s.Known.Target)
	appendSet(KeyCommentary, s.Known.Commentary)
	if s.Known.Digitized != nil {
		kvs = append(kvs, KV{KeyDigitized, *s.Known.Digitized})
	}
	appendSet(KeyObjective, s.Known.Objective)
	appendSet(KeyDigitizer, s.Known.Digitizer)

	for _, k := range s.extraKeys {
		kvs = append(kvs, KV{k, s.extras[k]})
	}

	kvs = append(kvs, KV{KeyState, s.State})
	kvs = append(kvs, KV{KeyInterrupted, s.Interrupted})
	kvs = append(kvs, KV{KeySessionID, s.SessionID})
	kvs = append(kvs, KV{KeyConditionDescription, ptrValue(s.Known.ConditionDescription)})
	kvs = append(kvs, KV{KeyTemp, ptrValue(s.Known.Temp)})
	kvs = append(kvs, KV{KeyPressure, ptrValue(s.Known.Pressure)})
	kvs = append(kvs, KV{KeyHumidity, ptrValue(s.Known.Humidity)})

	return kvs
}

// MarshalJSON serializes the snapshot as a JSON object in Snapshot order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range s.Snapshot() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", kv.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rebuilds the Store from a persisted snapshot object.
// Extras are restored in sorted key order, which keeps reserialization
// deterministic (JSON objects carry no reliable order of their own).
func (s *Store) UnmarshalJSON(data []byte) error {
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *New()
	return s.applyAll(raw)
}

// FromJSON parses a persisted snapshot document into a new Store.
func FromJSON(data []byte) (*Store, error) {
	s := New()
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

// FromPairs rebuilds a Store from an ordered key/value list, preserving
// the given extras order. Used by backends whose documents keep order.
func FromPairs(pairs []KV) (*Store, error) {
	s := New()
	for _, kv := range pairs {
		if err := s.Set(kv.Key, kv.Value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) applyAll(raw map[string]any) error {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Set(k, raw[k]); err != nil {
			return err
		}
	}
	return nil
}

func setString(key string, value any, dst *string) error {
	if value == nil {
		*dst = ""
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s must be a string", ErrValueType, key)
	}
	*dst = str
	return nil
}

func setNumber(key string, value any, dst **float64) error {
	if value == nil {
		*dst = nil
		return nil
	}
	f, ok := asNumber(value)
	if !ok {
		return fmt.Errorf("%w: %s must be a number", ErrValueType, key)
	}
	*dst = &f
	return nil
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		list := make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list, true
	}
	return nil, false
}

// validCategory reports whether a value belongs to one of the categories
// the persisted format round-trips: string, number, boolean or list.
func validCategory(value any) bool {
	switch value.(type) {
	case string, bool:
		return true
	case []string:
		return true
	case []any:
		return true
	}
	_, ok := asNumber(value)
	return ok
}

func ptrValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
