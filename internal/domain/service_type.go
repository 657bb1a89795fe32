package domain

// ServiceType identifies the platform subsystem a queue belongs to
type ServiceType string

const (
	ServiceTypeCore           ServiceType = "TB_CORE"
	ServiceTypeRuleEngine     ServiceType = "TB_RULE_ENGINE"
	ServiceTypeTransport      ServiceType = "TB_TRANSPORT"
	ServiceTypeJSExecutor     ServiceType = "JS_EXECUTOR"
	ServiceTypeVersionControl ServiceType = "TB_VERSION_CONTROL"
)

// KnownServiceTypes lists every service type token the platform recognizes
var KnownServiceTypes = []ServiceType{
	ServiceTypeCore,
	ServiceTypeRuleEngine,
	ServiceTypeTransport,
	ServiceTypeJSExecutor,
	ServiceTypeVersionControl,
}

// IsValidServiceType reports whether token names a known service type.
// Matching is exact and case-sensitive.
func IsValidServiceType(token string) bool {
	for _, st := range KnownServiceTypes {
		if string(st) == token {
			return true
		}
	}
	return false
}
