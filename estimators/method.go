package estimators

import (
	"fmt"
	"strings"
)

// Method identifies an estimation method.
type Method int

const (
	MethodHannanRissanen Method = iota
	MethodOLS
	MethodMLE
	MethodFTau
	MethodS
	MethodBS
	MethodMM
	MethodBMM
)

var methodNames = [...]string{
	MethodHannanRissanen: "hannan_rissanen",
	MethodOLS:            "ols",
	MethodMLE:            "mle",
	MethodFTau:           "ftau",
	MethodS:              "s",
	MethodBS:             "bs",
	MethodMM:             "mm",
	MethodBMM:            "bmm",
}

// String returns the method name.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// Robust reports whether the method bounds the influence of outliers.
func (m Method) Robust() bool {
	switch m {
	case MethodFTau, MethodS, MethodBS, MethodMM, MethodBMM:
		return true
	default:
		return false
	}
}

// MarshalText encodes the method by name.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a method name.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMethod returns the method with the given name. "bip_mm" is accepted
// as an alias of "bmm".
func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "bip_mm" {
		return MethodBMM, nil
	}
	for m, n := range methodNames {
		if n == name {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("unknown estimation method: %q", name)
}

// Methods returns every method in declaration order.
func Methods() []Method {
	out := make([]Method, len(methodNames))
	for i := range out {
		out[i] = Method(i)
	}
	return out
}
