package services

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/platform/validate"
)

func init() {
	validate.RegisterType(func(v reflect.Value) any {
		if o, ok := v.Interface().(OptionalString); ok {
			return o.String()
		}
		return nil
	}, OptionalString{})
}

// Optional* fields distinguish "absent" from "explicitly cleared" in PATCH
// bodies. Set is true whenever the key was present, Value is nil for null or "".
// UnmarshalParam lets gin's form binding fill them too. Ids arrive as
// OptionalString and are parsed by the handler into OptionalUUID.

type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	s, isNull, err := decodeOptionalString(data)
	if err != nil || isNull {
		o.Value = nil
		return err
	}
	o.set(s)
	return nil
}

func (o *OptionalString) UnmarshalParam(param string) error {
	o.Set = true
	o.set(strings.TrimSpace(param))
	return nil
}

// String is the new value, with a cleared field reading as "".
func (o OptionalString) String() string {
	if o.Value == nil {
		return ""
	}
	return *o.Value
}

func (o *OptionalString) set(s string) {
	if s == "" {
		o.Value = nil
		return
	}
	o.Value = &s
}

// OptionalTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	s, isNull, err := decodeOptionalString(data)
	if err != nil || isNull {
		o.Value = nil
		return err
	}
	return o.parse(s)
}

func (o *OptionalTime) UnmarshalParam(param string) error {
	o.Set = true
	return o.parse(strings.TrimSpace(param))
}

func (o *OptionalTime) parse(s string) error {
	if s == "" {
		o.Value = nil
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse(time.DateOnly, s)
		if err != nil {
			return err
		}
	}
	t = t.UTC()
	o.Value = &t
	return nil
}

func decodeOptionalString(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return "", true, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false, err
	}
	return strings.TrimSpace(s), false, nil
}
