package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/types"
)

var errNoJSON = errors.New("no JSON object found in model output")

// extractJSON returns the outermost JSON object in raw, ignoring code fences
// and any prose around it.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

// decodeObject parses model output into a generic object. Numbers are kept
// as json.Number so ids and confidences can be coerced later.
func decodeObject(raw string) (map[string]any, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("invalid JSON in model output: %w", err)
	}
	if obj == nil {
		return nil, errNoJSON
	}
	return obj, nil
}

// decode parses and schema-checks model output. A schema violation is only
// logged and counted; the caller repairs the object either way.
func decode(ctx context.Context, schemas *Schemas, agent types.AgentType, raw string) (map[string]any, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	if schemas != nil {
		if verr := schemas.Validate(agent, obj); verr != nil {
			metrics.SchemaViolations.WithLabelValues(agent.String()).Inc()
			logging.Ctx(ctx).Debug().Err(verr).Str("agent_type", agent.String()).Msg("model output violates schema, repairing")
		}
	}
	return obj, nil
}

// Field accessors over a decoded object. Each returns ok=false when the key
// is absent or holds an unusable value.

func str(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func num(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func strList(m map[string]any, key string) ([]string, bool) {
	raw, ok := m[key].([]any)
	if !ok {
		if s, isStr := m[key].(string); isStr && strings.TrimSpace(s) != "" {
			return []string{strings.TrimSpace(s)}, true
		}
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch v := it.(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		case map[string]any:
			if name, ok := str(v, "name"); ok && name != "" {
				out = append(out, name)
			}
		}
	}
	return out, true
}

func objList(m map[string]any, key string) []map[string]any {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func object(m map[string]any, key string) map[string]any {
	o, _ := m[key].(map[string]any)
	return o
}
