package finding

// Kind tags what a Finding reports. It is deliberately open: any string
// is a valid Kind, the constants below are the ones webprobe emits.
type Kind string

const (
	// KindMissingHeader is a security response header that was absent.
	KindMissingHeader Kind = "missing_header"

	// KindXSSReflected is a payload echoed verbatim in the response body.
	KindXSSReflected Kind = "xss_reflected"

	// KindSQLiErrorBased is a SQL error signature provoked by a payload.
	KindSQLiErrorBased Kind = "sqli_error_based"
)

// KnownKinds returns the kinds webprobe emits, in probe order.
func KnownKinds() []Kind {
	return []Kind{KindMissingHeader, KindXSSReflected, KindSQLiErrorBased}
}

// IsKnown reports whether k is one of KnownKinds.
func (k Kind) IsKnown() bool {
	switch k {
	case KindMissingHeader, KindXSSReflected, KindSQLiErrorBased:
		return true
	}
	return false
}

// IsInjection reports whether findings of this kind carry param and payload.
func (k Kind) IsInjection() bool {
	return k == KindXSSReflected || k == KindSQLiErrorBased
}

func (k Kind) String() string { return string(k) }
