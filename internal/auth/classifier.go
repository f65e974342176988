package auth

import (
	"errors"
	"net/http"
)

// Flow names one of the token-issuing operations.
type Flow string

const (
	FlowAdminLogin      Flow = "admin_login"
	FlowAdminRegister   Flow = "admin_register"
	FlowRegularLogin    Flow = "regular_login"
	FlowRegularRegister Flow = "regular_register"
	FlowAnonymousLogin  Flow = "anonymous_login"
)

// AllFlows lists every Flow.
var AllFlows = []Flow{
	FlowAdminLogin,
	FlowAdminRegister,
	FlowRegularLogin,
	FlowRegularRegister,
	FlowAnonymousLogin,
}

func (f Flow) admin() bool {
	return f == FlowAdminLogin || f == FlowAdminRegister
}

// Kind is the client-facing category of a failed flow.
type Kind string

const (
	KindMissingField          Kind = "MissingField"
	KindInvalidFormat         Kind = "InvalidFormat"
	KindPolicyViolation       Kind = "PolicyViolation"
	KindInvalidCredentials    Kind = "InvalidCredentials"
	KindNotAdmin              Kind = "NotAdmin"
	KindPasswordResetRequired Kind = "PasswordResetRequired"
	KindUserNotConfirmed      Kind = "UserNotConfirmed"
	KindAlreadyExists         Kind = "AlreadyExists"
	KindPolicyRejected        Kind = "PolicyRejected"
	KindProvisioningMissing   Kind = "ProvisioningMissing"
	KindConfigurationError    Kind = "ConfigurationError"
	KindUnclassified          Kind = "Unclassified"
)

// Status is the HTTP status reported for k.
func (k Kind) Status() int {
	switch k {
	case KindMissingField, KindInvalidFormat, KindPolicyViolation, KindPolicyRejected:
		return http.StatusBadRequest
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindNotAdmin, KindPasswordResetRequired, KindUserNotConfirmed:
		return http.StatusForbidden
	case KindAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// exposesDetail reports whether the underlying error text is returned to
// the client alongside the message.
func (k Kind) exposesDetail() bool {
	switch k {
	case KindPolicyRejected, KindProvisioningMissing, KindConfigurationError, KindUnclassified:
		return true
	}
	return false
}

// Classification is the client-facing outcome of a failed flow.
type Classification struct {
	Kind    Kind
	Status  int
	Message string
	Detail  string
}

// Classify maps a flow failure to its kind, status and message. Errors that
// match nothing known are Unclassified.
func Classify(flow Flow, err error) Classification {
	kind := kindOf(err)
	c := Classification{
		Kind:    kind,
		Status:  kind.Status(),
		Message: message(flow, kind),
	}
	if kind.exposesDetail() && err != nil {
		c.Detail = detailOf(err)
	}
	return c
}

func kindOf(err error) Kind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	if errors.Is(err, ErrNotAdmin) {
		return KindNotAdmin
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrSecretNotConfigured) {
		return KindConfigurationError
	}
	var pf *ProviderFailure
	if errors.As(err, &pf) {
		return kindForFailure(pf.Code)
	}
	return KindUnclassified
}

func kindForFailure(code FailureCode) Kind {
	switch code {
	case FailureUserNotFound, FailureNotAuthorized:
		return KindInvalidCredentials
	case FailurePasswordResetRequired:
		return KindPasswordResetRequired
	case FailureUserNotConfirmed:
		return KindUserNotConfirmed
	case FailureUsernameExists:
		return KindAlreadyExists
	case FailureInvalidPassword:
		return KindPolicyRejected
	case FailureResourceNotFound:
		return KindProvisioningMissing
	default:
		return KindUnclassified
	}
}

func detailOf(err error) string {
	var pf *ProviderFailure
	if errors.As(err, &pf) && pf.Detail != "" {
		return pf.Detail
	}
	return err.Error()
}

func message(flow Flow, kind Kind) string {
	switch kind {
	case KindMissingField:
		switch flow {
		case FlowRegularLogin:
			return "CPF is required"
		case FlowRegularRegister:
			return "CPF and name are required"
		default:
			return "Email and password are required"
		}
	case KindInvalidFormat:
		return "Invalid email format"
	case KindPolicyViolation:
		return "Password must be at least 8 characters long"
	case KindInvalidCredentials:
		if flow.admin() {
			return "Invalid email or password"
		}
		return "Invalid CPF or user not found"
	case KindNotAdmin:
		return "Access denied. User is not an admin."
	case KindPasswordResetRequired:
		return "Password reset required. Please contact administrator."
	case KindUserNotConfirmed:
		return "User account not confirmed"
	case KindAlreadyExists:
		if flow.admin() {
			return "Admin with this email already exists"
		}
		return "User with this CPF already exists"
	case KindPolicyRejected:
		return "Password does not meet security requirements"
	case KindProvisioningMissing:
		if flow == FlowAdminRegister {
			return "Admin group not found in identity provider. Please contact system administrator."
		}
		return "Identity provider resource not found. Please contact system administrator."
	}
	return genericMessage(flow)
}

func genericMessage(flow Flow) string {
	switch flow {
	case FlowAdminLogin:
		return "Error during admin login"
	case FlowAdminRegister:
		return "Error registering admin"
	case FlowRegularLogin:
		return "Error during login"
	case FlowRegularRegister:
		return "Error registering user"
	case FlowAnonymousLogin:
		return "Error during anonymous login"
	}
	return "Internal server error"
}
