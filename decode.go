package extract

import (
	"bytes"
	"encoding"
	"encoding/json"
	"io"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// DecodeFunc turns a buffered body into a T.
type DecodeFunc[T any] func(data []byte) (T, error)

// UnmarshalWith adapts an Unmarshal-style function, such as
// json.Unmarshal, into a DecodeFunc.
func UnmarshalWith[T any](unmarshal func(data []byte, v any) error) DecodeFunc[T] {
	return func(data []byte) (T, error) {
		var v T
		err := unmarshal(data, &v)
		return v, err
	}
}

// JSON decodes the body as JSON with DecodeJSON.
func JSON[T any]() BodyExtractor[T] {
	return FromBody[T](DecodeJSON[T])
}

// YAML decodes the body as YAML with DecodeYAML.
func YAML[T any]() BodyExtractor[T] {
	return FromBody[T](DecodeYAML[T])
}

// Proto decodes the body as binary protobuf into a new message.
//
//	e := extract.Proto[wrapperspb.StringValue]()
func Proto[T any, PT interface {
	*T
	proto.Message
}]() BodyExtractor[PT] {
	return FromBody[PT](DecodeProto[T, PT])
}

// ProtoJSON decodes the body as the protobuf JSON mapping.
func ProtoJSON[T any, PT interface {
	*T
	proto.Message
}]() BodyExtractor[PT] {
	return FromBody[PT](DecodeProtoJSON[T, PT])
}

// DecodeJSON decodes exactly one JSON value.  For struct targets
// every field that is neither a pointer nor tagged omitempty must be
// present, recursively through nested structs, so a body that leaves
// out a field is rejected instead of decoding to a zero value.
func DecodeJSON[T any](data []byte) (T, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 {
		return v, ErrEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if _, err := dec.Token(); err != io.EOF {
		var zero T
		return zero, errors.New("unexpected data after JSON value")
	}
	if err := requireJSONFields(typeOf[T](), data, ""); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// DecodeYAML decodes a YAML document.  Keys that do not map to a
// field are an error.
func DecodeYAML[T any](data []byte) (T, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 {
		return v, ErrEmptyBody
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// DecodeProto unmarshals the binary protobuf encoding.  An empty body
// is a valid encoding of a message with every field at its default.
func DecodeProto[T any, PT interface {
	*T
	proto.Message
}](data []byte) (PT, error) {
	msg := PT(new(T))
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeProtoJSON unmarshals the protobuf JSON mapping.  Unknown
// fields are an error.
func DecodeProtoJSON[T any, PT interface {
	*T
	proto.Message
}](data []byte) (PT, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyBody
	}
	msg := PT(new(T))
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func requireJSONFields(t reflect.Type, data []byte, prefix string) error {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || customJSON(t) {
		return nil
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil || present == nil {
		return errors.Errorf("expected a JSON object for %s", t)
	}
	return requireStructFields(t, present, prefix)
}

// requireStructFields checks the fields of t against one decoded
// object.  Untagged embedded structs contribute their fields to the
// same object, as encoding/json promotes them.
func requireStructFields(t reflect.Type, present map[string]json.RawMessage, prefix string) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			switch f.Type.Kind() {
			case reflect.Ptr:
				continue
			case reflect.Struct:
				if customJSON(f.Type) {
					break
				}
				if err := requireStructFields(f.Type, present, prefix); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if f.Type.Kind() == reflect.Ptr || strings.Contains(opts, "omitempty") {
			continue
		}
		raw, ok := lookupJSONKey(present, name)
		if !ok {
			return errors.Errorf("missing field %q", prefix+name)
		}
		if f.Type.Kind() == reflect.Struct {
			if err := requireJSONFields(f.Type, raw, prefix+name+"."); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// customJSON reports whether t decodes itself, as time.Time does.
func customJSON(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType)
}

// lookupJSONKey matches keys the way encoding/json does: exact first,
// then case-insensitively.
func lookupJSONKey(m map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := m[name]; ok {
		return raw, true
	}
	for k, raw := range m {
		if strings.EqualFold(k, name) {
			return raw, true
		}
	}
	return nil, false
}
