// Package catalog holds the read-only set of guessable players and the
// lookups a round needs: name resolution and seeded target selection.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// ID identifies an entity. Source files may carry it as a number or a string.
type ID string

// Entity is a guessable subject.
type Entity struct {
	ID         ID        `json:"id" toml:"id" msgpack:"id"`
	Name       string    `json:"name" toml:"name" msgpack:"name"`
	Conference string    `json:"conference" toml:"conference" msgpack:"conference"`
	Team       string    `json:"team" toml:"team" msgpack:"team"`
	Positions  Positions `json:"position" toml:"position" msgpack:"position"`
	Number     int       `json:"number" toml:"number" msgpack:"number"`
	Age        int       `json:"age" toml:"age" msgpack:"age"`
}

// Positions is a tag set. Sources may store a single value or a list; both
// decode to a list.
type Positions []string

// Overlaps reports whether p and other share at least one tag.
func (p Positions) Overlaps(other Positions) bool {
	for _, a := range p {
		for _, b := range other {
			if a == b {
				return true
			}
		}
	}
	return false
}

// UnmarshalJSON accepts "QB", ["QB","WR"] or null.
func (p *Positions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Positions{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	*p = list
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (p *Positions) UnmarshalTOML(v any) error {
	list, err := toStrings(v)
	if err != nil {
		return fmt.Errorf("position: %w", err)
	}
	*p = list
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (p *Positions) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	list, err := toStrings(v)
	if err != nil {
		return fmt.Errorf("position: %w", err)
	}
	*p = list
	return nil
}

// UnmarshalJSON accepts 12 or "12".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (id *ID) UnmarshalTOML(v any) error {
	s, err := toString(v)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (id *ID) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	s, err := toString(v)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int:
		return strconv.Itoa(t), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

func toStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("unsupported element %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}
