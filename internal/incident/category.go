package incident

import (
	"fmt"
	"strconv"
)

// Category is a failure category observed on a signup attempt.
// The declaration order is fixed: it is the tie-break order for the
// "most common failure" reduction and must not be reordered.
type Category int

const (
	AuthenticationFailed Category = iota
	NetworkTimeout
	PaymentDeclined
	ProgramFull
	SiteMaintenance
	CaptchaChallenge
	RateLimited
	FormValidationError

	numCategories
)

// DefaultCategory is the fallback when a weighted draw falls through the
// table due to rounding (cumulative weights summing to just under 1.0).
const DefaultCategory = NetworkTimeout

// Kind is the manual intervention required to unstick an incident.
type Kind int

const (
	KindNone Kind = iota
	ManualLogin
	CredentialUpdate
	PaymentMethodUpdate
	CustomerSupport
	SystemRestart
)

// categoryInfo holds the static per-category policy: wire name, user-facing
// message, whether the retry cascade applies, and whether the category
// inherently needs a human (plus which kind of intervention).
type categoryInfo struct {
	name         string
	message      string
	retryable    bool
	intervention Kind // KindNone when the category does not require one
}

var categories = [numCategories]categoryInfo{
	AuthenticationFailed: {
		name:         "authentication_failed",
		message:      "Invalid username or password",
		retryable:    true,
		intervention: CredentialUpdate,
	},
	NetworkTimeout: {
		name:      "network_timeout",
		message:   "Request timed out after 30 seconds",
		retryable: true,
	},
	PaymentDeclined: {
		name:    "payment_declined",
		message: "Payment was declined by your bank",
	},
	ProgramFull: {
		name:    "program_full",
		message: "This program is currently full",
	},
	SiteMaintenance: {
		name:         "site_maintenance",
		message:      "Site is under maintenance",
		retryable:    true,
		intervention: CustomerSupport,
	},
	CaptchaChallenge: {
		name:         "captcha_challenge",
		message:      "CAPTCHA verification required",
		retryable:    true,
		intervention: ManualLogin,
	},
	RateLimited: {
		name:      "rate_limited",
		message:   "Too many requests, please try again later",
		retryable: true,
	},
	FormValidationError: {
		name:      "form_validation_error",
		message:   "Please check all required fields",
		retryable: true,
	},
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, 0, numCategories)
	for c := Category(0); c < numCategories; c++ {
		out = append(out, c)
	}
	return out
}

// ParseCategory maps a wire name (e.g. "program_full") to its Category.
func ParseCategory(name string) (Category, error) {
	for c := Category(0); c < numCategories; c++ {
		if categories[c].name == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("incident: unknown failure category %q", name)
}

func (c Category) valid() bool { return c >= 0 && c < numCategories }

// String returns the stable wire name of the category.
func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categories[c].name
}

// Message returns the human-readable error message for the category.
func (c Category) Message() string {
	if !c.valid() {
		return "Unknown error occurred"
	}
	return categories[c].message
}

// Retryable reports whether the retry cascade applies to this category.
// program_full and payment_declined are terminal — retrying cannot change
// the outcome.
func (c Category) Retryable() bool {
	return c.valid() && categories[c].retryable
}

// RequiresIntervention reports whether the category inherently needs a
// human, independent of how the retry cascade goes.
func (c Category) RequiresIntervention() bool {
	return c.valid() && categories[c].intervention != KindNone
}

// Intervention returns the intervention kind mapped to this category, or
// KindNone when the category does not require one.
func (c Category) Intervention() Kind {
	if !c.valid() {
		return KindNone
	}
	return categories[c].intervention
}

var kindNames = map[Kind]string{
	KindNone:            "",
	ManualLogin:         "manual_login",
	CredentialUpdate:    "credential_update",
	PaymentMethodUpdate: "payment_method_update",
	CustomerSupport:     "customer_support",
	SystemRestart:       "system_restart",
}

// String returns the stable wire name of the intervention kind.
// KindNone renders as the empty string.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalJSON emits the category's wire name.
func (c Category) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// MarshalJSON emits the kind's wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}
