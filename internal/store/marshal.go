package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ilverify/internal/ir"
)

// marshalOptions serializes run options to canonical JSON so that equal
// configurations compare equal as TEXT.
func marshalOptions(o Options) (string, error) {
	b, err := ir.MarshalCanonical(ir.IRObject{
		"fail_fast": ir.IRBool(o.FailFast),
		"memoize":   ir.IRBool(o.Memoize),
	})
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(b), nil
}

// unmarshalOptions parses stored options. Missing keys read as false.
func unmarshalOptions(data string) (Options, error) {
	var o Options
	if data == "" || data == "{}" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return Options{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return o, nil
}
