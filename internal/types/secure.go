package types

import "log/slog"

const redacted = "[redacted]"

// SecretString holds a credential such as the inference API key. It prints,
// marshals, and logs as a fixed placeholder; Unmask returns the real value.
type SecretString string

// String implements fmt.Stringer.
func (s SecretString) String() string { return redacted }

// GoString implements fmt.GoStringer so %#v is covered too.
func (s SecretString) GoString() string { return redacted }

// MarshalJSON always emits the placeholder.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// LogValue implements slog.LogValuer.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// IsSet reports whether a non-empty value was configured.
func (s SecretString) IsSet() bool { return s != "" }

// Unmask returns the plaintext. Call it only at the point of use, such as
// building an Authorization header.
func (s SecretString) Unmask() string { return string(s) }
