package sip

import "strings"

// Request methods used by the user agent.
const (
	RequestMethodRegister  RequestMethod = "REGISTER"
	RequestMethodSubscribe RequestMethod = "SUBSCRIBE"
	RequestMethodNotify    RequestMethod = "NOTIFY"
	RequestMethodOptions   RequestMethod = "OPTIONS"
)

// RequestMethod is a SIP request method.
type RequestMethod string

// ToUpper returns the method in upper case.
func (m RequestMethod) ToUpper() RequestMethod { return RequestMethod(strings.ToUpper(string(m))) }

// IsValid reports whether the method is a non-empty token without whitespace.
func (m RequestMethod) IsValid() bool {
	return m != "" && !strings.ContainsAny(string(m), " \t\r\n")
}

// Equal compares the method with val case-insensitively.
// val can be [RequestMethod], *[RequestMethod] or string.
func (m RequestMethod) Equal(val any) bool {
	var other RequestMethod
	switch v := val.(type) {
	case RequestMethod:
		other = v
	case *RequestMethod:
		if v == nil {
			return false
		}
		other = *v
	case string:
		other = RequestMethod(v)
	default:
		return false
	}
	return strings.EqualFold(string(m), string(other))
}

func (m RequestMethod) String() string { return string(m) }
