// Package validation implements chainable field validation over a record
// decoded from a JSON request body. A Validator walks one field at a time
// and accumulates human-readable failure messages in check order; the
// caller reads Messages() at the end and rejects the request when the
// list is non-empty.
//
// Typical use:
//
//	v := validation.New(body)
//	v.Validate("email").IsRequired().IsEmail().
//		IsUnique(ctx, users, map[string]any{"email": v.Value()})
//	v.Validate("password").IsRequired().MinSize(8)
//	if v.Failed() {
//	    // reject with v.Messages()
//	}
package validation

import (
	"context"
	"fmt"
	"regexp"
)

var (
	// Deliberately permissive: local@domain.tld with dot/dash separated
	// word segments and a 2-3 letter final segment. Not RFC 5322.
	emailPattern   = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	specialPattern = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// Lookup is the uniqueness oracle consulted by IsUnique. Implementations
// report whether any record matches the filter.
type Lookup interface {
	FindOne(ctx context.Context, filter map[string]any) (bool, error)
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(ctx context.Context, filter map[string]any) (bool, error)

func (f LookupFunc) FindOne(ctx context.Context, filter map[string]any) (bool, error) {
	return f(ctx, filter)
}

// Validator threads a single mutable context through a chain of checks.
// Every check returns the same *Validator so calls can be chained; the
// message list only ever grows within one validation session.
type Validator struct {
	record  map[string]any
	name    string
	value   any
	present bool
	msgs    []string
	err     error
}

// New starts an empty-error validation session over record.
func New(record map[string]any) *Validator {
	return &Validator{record: record}
}

// Validate selects the field the following checks apply to and recomputes
// presence. A field counts as present only when the record holds a truthy
// value for it: a missing key, nil, false, numeric zero and the empty
// string are all treated as absent.
func (v *Validator) Validate(name string) *Validator {
	v.name = name
	v.value = v.record[name]
	v.present = truthy(v.value)
	return v
}

// IsRequired fails when the current field is absent. Absence also
// neutralizes every later check on the field, so at most one message is
// reported for a missing value.
func (v *Validator) IsRequired() *Validator {
	if !v.present {
		v.fail(v.name + " is required")
	}
	return v
}

// IsEmail fails when a present value does not look like an email address.
func (v *Validator) IsEmail() *Validator {
	if v.present && !emailPattern.MatchString(stringify(v.value)) {
		v.fail(v.name + " is not a valid email")
	}
	return v
}

// MinSize fails when a present value has a length below size. Values
// without a length (numbers, booleans) are left alone.
func (v *Validator) MinSize(size int) *Validator {
	if n, ok := length(v.value); v.present && ok && n < size {
		v.fail(fmt.Sprintf("%s should be greater than %d", v.name, size))
	}
	return v
}

// SizeOf fails when a present value's length differs from size. A value
// without a length never equals size, so it fails too.
func (v *Validator) SizeOf(size int) *Validator {
	if !v.present {
		return v
	}
	if n, ok := length(v.value); !ok || n != size {
		v.fail(fmt.Sprintf("%s should be %d", v.name, size))
	}
	return v
}

// HasNoSpecialChar fails when a present value contains any character
// outside [A-Za-z0-9].
func (v *Validator) HasNoSpecialChar() *Validator {
	if v.present && specialPattern.MatchString(stringify(v.value)) {
		v.fail(v.name + " cannot have special chars")
	}
	return v
}

// IsUnique queries lookup with filter and fails when a record exists for a
// present field. This is the only check with external latency; the lookup
// runs to completion before the chain continues. Transport errors are
// recorded on the validator (see Err) instead of the message list.
func (v *Validator) IsUnique(ctx context.Context, lookup Lookup, filter map[string]any) *Validator {
	found, err := lookup.FindOne(ctx, filter)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return v
	}
	if v.present && found {
		v.fail(v.name + " is already taken")
	}
	return v
}

// Value returns the raw value of the field selected by the last Validate
// call, or nil when the field is missing.
func (v *Validator) Value() any { return v.value }

// Messages returns the accumulated failure messages in check order.
func (v *Validator) Messages() []string { return v.msgs }

// Failed reports whether any check failed so far.
func (v *Validator) Failed() bool { return len(v.msgs) > 0 }

// Err returns the first lookup transport error encountered, if any.
// It is distinct from validation failures: the caller should map it to a
// server-side error rather than a field message.
func (v *Validator) Err() error { return v.err }

func (v *Validator) fail(msg string) { v.msgs = append(v.msgs, msg) }

func truthy(val any) bool {
	switch x := val.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}

// length reports the element count for values that have one.
func length(val any) (int, bool) {
	switch x := val.(type) {
	case string:
		return len(x), true
	case []any:
		return len(x), true
	case map[string]any:
		return len(x), true
	default:
		return 0, false
	}
}

func stringify(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}
