package frame

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

// Native type tags. These are the dtype names a contract declares and the
// validator compares against, so they must stay byte-for-byte stable.
const (
	TagBool   = "bool"
	TagInt    = "int64"
	TagFloat  = "float64"
	TagString = "object"
	TagTime   = "datetime64[ns]"
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Tag returns the native type tag for k.
func (k Kind) Tag() string {
	switch k {
	case KindBool:
		return TagBool
	case KindInt:
		return TagInt
	case KindFloat:
		return TagFloat
	case KindString:
		return TagString
	case KindTime:
		return TagTime
	default:
		return ""
	}
}

// KindForTag maps a native type tag back to a Kind.
func KindForTag(tag string) (Kind, bool) {
	switch tag {
	case TagBool:
		return KindBool, true
	case TagInt:
		return KindInt, true
	case TagFloat:
		return KindFloat, true
	case TagString:
		return KindString, true
	case TagTime:
		return KindTime, true
	default:
		return KindInvalid, false
	}
}
