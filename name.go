package kstate

import "strings"

// namePrefix is prepended to a validated user name to form the canonical
// shared-object name.
const namePrefix = "/kstate."

// MaxNameLen is the maximum length of a user-supplied state name: NAME_MAX
// (255 on Linux) minus one, matching KSTATE_MAX_NAME_LEN in kstate.h.
const MaxNameLen = 254

// ValidateName reports whether name obeys the naming rules: at
// least one character, at most MaxNameLen characters, no leading or
// trailing '.', no adjacent '.'s, and every non-dot byte ASCII alphanumeric.
// It returns an *Error with the same Code and message Subscribe itself
// would return for a bad name (only Op differs), so callers can
// pre-validate user input before attempting a subscription.
func ValidateName(name string) error {
	return validateName("ValidateName", name)
}

// validateName is ValidateName's internal form, used by Subscribe and
// friends so the returned error's Op reflects the real caller.
func validateName(op, name string) error {
	if len(name) == 0 {
		return newError(op, CodeInvalidArgument, "state name may not be zero length")
	}
	if len(name) > MaxNameLen {
		return newError(op, CodeInvalidArgument, "state name exceeds maximum length")
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return newError(op, CodeInvalidArgument, "state name may not start or end with '.'")
	}

	prevDot := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '.' {
			if prevDot {
				return newError(op, CodeInvalidArgument, "state name may not have adjacent '.'s")
			}
			prevDot = true
			continue
		}
		prevDot = false
		if !isASCIIAlnum(c) {
			return newError(op, CodeInvalidArgument, "state name may not contain non-alphanumeric characters")
		}
	}
	return nil
}

func isASCIIAlnum(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	default:
		return false
	}
}

// canonicalName returns the shared-object name used at the store boundary.
// Callers must validate name first.
func canonicalName(name string) string {
	var b strings.Builder
	b.Grow(len(namePrefix) + len(name))
	b.WriteString(namePrefix)
	b.WriteString(name)
	return b.String()
}

// userName strips namePrefix back off a canonical name, for State/Transaction
// to report what the caller originally asked for.
func userName(canonical string) string {
	return strings.TrimPrefix(canonical, namePrefix)
}
