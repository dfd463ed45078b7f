package server

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Requests and responses are google.protobuf.Struct messages, so the
// service speaks the Connect, gRPC, and gRPC-Web protocols without
// generated stubs. Over Connect's JSON codec a message is a plain JSON
// object.

// stringField returns a string field, or "" when absent.
func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return "", nil
	}
	str, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", fmt.Errorf("field %q must be a string", key)
	}
	return str.StringValue, nil
}

// stringsField returns a list-of-strings field, or nil when absent.
func stringsField(s *structpb.Struct, key string) ([]string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("field %q must be a list of strings", key)
	}
	out := make([]string, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		str, isString := item.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return nil, fmt.Errorf("field %q[%d] must be a string", key, i)
		}
		out = append(out, str.StringValue)
	}
	return out, nil
}

// list converts names for structpb.NewStruct, which only accepts []interface{}.
func list(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}
