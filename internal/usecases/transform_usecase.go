package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
)

// TransformUsecase applies versioned payload schema mappings. A mapping runs
// fieldMappings, then defaultValues, then conditionalMappings, then element
// transformationRules, then validationRules against the produced payload.
type TransformUsecase struct {
	mappingRepo repositories.SchemaMappingRepository
}

// NewTransformUsecase creates a new transform usecase
func NewTransformUsecase(mappingRepo repositories.SchemaMappingRepository) *TransformUsecase {
	return &TransformUsecase{mappingRepo: mappingRepo}
}

// CreateMapping registers a new mapping version. The repository deactivates
// any prior active version of the same (endpoint, name) in the same
// transaction, so there is at most one active mapping per pair.
func (u *TransformUsecase) CreateMapping(ctx context.Context, mapping *entities.PayloadSchemaMapping) error {
	if mapping.MappingName == "" {
		return domainerrors.BadRequest("mappingName is required")
	}
	if mapping.Direction == "" {
		mapping.Direction = entities.MappingDirectionBidirectional
	}
	return u.mappingRepo.Create(ctx, mapping)
}

// Transform applies the active mapping for (endpoint, name, direction).
// version > 0 pins an exact mapping version.
func (u *TransformUsecase) Transform(ctx context.Context, endpointConfigID uuid.UUID, mappingName string, direction entities.MappingDirection, version int, payload map[string]interface{}) (map[string]interface{}, error) {
	var mapping *entities.PayloadSchemaMapping
	var err error
	if version > 0 {
		mapping, err = u.mappingRepo.GetVersion(ctx, endpointConfigID, mappingName, version)
	} else {
		mapping, err = u.mappingRepo.GetActive(ctx, endpointConfigID, mappingName, direction)
	}
	if err != nil {
		return nil, err
	}
	return u.Apply(mapping, payload)
}

// Apply runs a mapping over a payload without touching storage
func (u *TransformUsecase) Apply(mapping *entities.PayloadSchemaMapping, payload map[string]interface{}) (map[string]interface{}, error) {
	out := applyFieldMappings(mapping.FieldMappings, payload)
	applyDefaults(mapping.DefaultValues, out)
	applyConditionals(mapping.ConditionalMappings, payload, out)
	if err := applyTransformations(mapping.TransformationRules, out); err != nil {
		return nil, err
	}
	if result := Validate(mapping.ValidationRules, out); !result.Valid {
		return nil, validationError(result)
	}
	return out, nil
}

// Validate checks a payload against a rule set without transforming it
func Validate(rules map[string]interface{}, payload map[string]interface{}) *entities.PayloadValidationResult {
	result := &entities.PayloadValidationResult{Valid: true}
	for path, raw := range rules {
		rule, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		value, present := lookupPath(payload, path)
		checkRule(result, path, rule, value, present)
	}
	return result
}

// applyFieldMappings projects source paths onto target paths. A mapping value
// is either a source path string or {source, transformation, default}.
func applyFieldMappings(fieldMappings map[string]interface{}, payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	if len(fieldMappings) == 0 {
		// Identity mapping: start from a shallow copy of the payload.
		for k, v := range payload {
			out[k] = v
		}
		return out
	}
	for target, raw := range fieldMappings {
		switch spec := raw.(type) {
		case string:
			if v, ok := lookupPath(payload, spec); ok {
				setPath(out, target, v)
			}
		case map[string]interface{}:
			source, _ := spec["source"].(string)
			v, ok := lookupPath(payload, source)
			if !ok {
				if def, has := spec["default"]; has {
					setPath(out, target, def)
				}
				continue
			}
			if t, has := spec["transformation"].(string); has {
				if tv, err := transformValue(t, v, spec); err == nil {
					v = tv
				}
			}
			setPath(out, target, v)
		}
	}
	return out
}

// applyDefaults fills target paths that are still absent
func applyDefaults(defaults map[string]interface{}, out map[string]interface{}) {
	for path, v := range defaults {
		if _, present := lookupPath(out, path); !present {
			setPath(out, path, v)
		}
	}
}

// applyConditionals sets target values when their condition holds against the
// original payload. Conditions: {field, operator: equals|in|and|or, value,
// conditions, then: {target: value}}.
func applyConditionals(conditionals map[string]interface{}, payload, out map[string]interface{}) {
	for _, raw := range conditionals {
		cond, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if !evalCondition(cond, payload) {
			continue
		}
		if then, ok := cond["then"].(map[string]interface{}); ok {
			for target, v := range then {
				setPath(out, target, v)
			}
		}
	}
}

func evalCondition(cond map[string]interface{}, payload map[string]interface{}) bool {
	op, _ := cond["operator"].(string)
	switch op {
	case "and", "or":
		subs, ok := cond["conditions"].([]interface{})
		if !ok {
			return false
		}
		for _, s := range subs {
			sub, ok := s.(map[string]interface{})
			if !ok {
				return false
			}
			held := evalCondition(sub, payload)
			if op == "and" && !held {
				return false
			}
			if op == "or" && held {
				return true
			}
		}
		return op == "and"
	case "in":
		field, _ := cond["field"].(string)
		value, _ := lookupPath(payload, field)
		set, ok := cond["value"].([]interface{})
		if !ok {
			return false
		}
		for _, candidate := range set {
			if fmt.Sprint(candidate) == fmt.Sprint(value) {
				return true
			}
		}
		return false
	default: // equals
		field, _ := cond["field"].(string)
		value, _ := lookupPath(payload, field)
		return fmt.Sprint(value) == fmt.Sprint(cond["value"])
	}
}

// applyTransformations mutates elements in place. Rules are keyed by path:
// {type: uppercase|lowercase|trim|date_format|number_format|currency_format|
// regex_replace, ...args}.
func applyTransformations(rules map[string]interface{}, out map[string]interface{}) error {
	for path, raw := range rules {
		rule, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		value, present := lookupPath(out, path)
		if !present {
			continue
		}
		kind, _ := rule["type"].(string)
		transformed, err := transformValue(kind, value, rule)
		if err != nil {
			return domainerrors.BadRequest(fmt.Sprintf("transformation %q on %s: %v", kind, path, err))
		}
		setPath(out, path, transformed)
	}
	return nil
}

func transformValue(kind string, value interface{}, args map[string]interface{}) (interface{}, error) {
	switch kind {
	case "uppercase":
		return strings.ToUpper(fmt.Sprint(value)), nil
	case "lowercase":
		return strings.ToLower(fmt.Sprint(value)), nil
	case "trim":
		return strings.TrimSpace(fmt.Sprint(value)), nil
	case "date_format":
		from, _ := args["from"].(string)
		to, _ := args["to"].(string)
		if from == "" {
			from = time.RFC3339
		}
		if to == "" {
			to = "2006-01-02"
		}
		t, err := time.Parse(from, fmt.Sprint(value))
		if err != nil {
			return nil, err
		}
		return t.Format(to), nil
	case "number_format":
		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		decimals := 2
		if d, ok := toInt(args["decimals"]); ok {
			decimals = d
		}
		return strconv.FormatFloat(f, 'f', decimals, 64), nil
	case "currency_format":
		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		currency, _ := args["currency"].(string)
		formatted := strconv.FormatFloat(f, 'f', 2, 64)
		if currency != "" {
			return currency + " " + formatted, nil
		}
		return formatted, nil
	case "regex_replace":
		pattern, _ := args["pattern"].(string)
		replacement, _ := args["replacement"].(string)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		return re.ReplaceAllString(fmt.Sprint(value), replacement), nil
	case "":
		return value, nil
	default:
		return nil, fmt.Errorf("unknown transformation %q", kind)
	}
}

func checkRule(result *entities.PayloadValidationResult, path string, rule map[string]interface{}, value interface{}, present bool) {
	fail := func(msg string) {
		result.Valid = false
		result.Errors = append(result.Errors, entities.FieldValidationError{Path: path, Message: msg})
	}

	if required, _ := rule["required"].(bool); required && (!present || value == nil || fmt.Sprint(value) == "") {
		fail("field is required")
		return
	}
	if !present {
		return
	}

	if expected, ok := rule["type"].(string); ok && !typeMatches(expected, value) {
		fail(fmt.Sprintf("expected type %s", expected))
	}
	s := fmt.Sprint(value)
	if min, ok := toInt(rule["minLength"]); ok && len(s) < min {
		fail(fmt.Sprintf("shorter than minLength %d", min))
	}
	if max, ok := toInt(rule["maxLength"]); ok && len(s) > max {
		fail(fmt.Sprintf("longer than maxLength %d", max))
	}
	if pattern, ok := rule["pattern"].(string); ok {
		if re, err := regexp.Compile(pattern); err == nil && !re.MatchString(s) {
			fail("does not match pattern")
		}
	}
	if minV, has := rule["min"]; has {
		if f, err := toFloat(value); err == nil {
			if bound, err := toFloat(minV); err == nil && f < bound {
				fail(fmt.Sprintf("below min %v", minV))
			}
		}
	}
	if maxV, has := rule["max"]; has {
		if f, err := toFloat(value); err == nil {
			if bound, err := toFloat(maxV); err == nil && f > bound {
				fail(fmt.Sprintf("above max %v", maxV))
			}
		}
	}
}

func typeMatches(expected string, value interface{}) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, err := toFloat(value)
		return err == nil
	case "integer":
		// JSON numbers arrive as float64; accept them when whole.
		f, err := toFloat(value)
		return err == nil && f == float64(int64(f))
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	default:
		return true
	}
}

// lookupPath walks a dot path through nested maps and array indexes
func lookupPath(m map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	var current interface{} = m
	for _, seg := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// setPath writes a value at a dot path, creating intermediate maps
func setPath(m map[string]interface{}, path string, value interface{}) {
	segs := strings.Split(path, ".")
	current := m
	for _, seg := range segs[:len(segs)-1] {
		next, ok := current[seg].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[seg] = next
		}
		current = next
	}
	current[segs[len(segs)-1]] = value
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func validationError(result *entities.PayloadValidationResult) error {
	msgs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		msgs = append(msgs, e.Path+": "+e.Message)
	}
	return domainerrors.BadRequest("payload validation failed: " + strings.Join(msgs, "; "))
}
