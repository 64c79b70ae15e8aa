package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/exemplar/internal/exchange"
)

// marshalArguments converts ordered arguments to JSON TEXT for storage.
// Key order is parameter declaration order, not sorted.
func marshalArguments(args exchange.Arguments) (string, error) {
	data, err := args.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal arguments: %w", err)
	}
	return string(data), nil
}

// marshalValue converts a typed value to JSON TEXT for storage.
func marshalValue(v exchange.Value) (string, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal return value: %w", err)
	}
	return string(data), nil
}

// unmarshalArguments parses stored arguments, preserving key order.
func unmarshalArguments(data string) (exchange.Arguments, error) {
	args := exchange.Arguments{}
	if err := json.Unmarshal([]byte(data), &args); err != nil {
		return nil, fmt.Errorf("unmarshal arguments: %w", err)
	}
	return args, nil
}

// unmarshalValue parses a stored typed value.
func unmarshalValue(data string) (exchange.Value, error) {
	var v exchange.Value
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return exchange.Value{}, fmt.Errorf("unmarshal return value: %w", err)
	}
	return v, nil
}
