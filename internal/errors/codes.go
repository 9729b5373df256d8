package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeConfigNotFound   Code = "CONFIG_NOT_FOUND"
	CodeConfigExists     Code = "CONFIG_EXISTS"

	// Release API
	CodeReleaseLookup       Code = "RELEASE_LOOKUP_ERROR"
	CodeNoDeployableRelease Code = "NO_DEPLOYABLE_RELEASE"
	CodePlatformAuthError   Code = "PLATFORM_AUTH_ERROR"
	CodeTimeout             Code = "TIMEOUT_ERROR"

	// Remote actions and local tooling
	CodeRemoteCommand    Code = "REMOTE_COMMAND_ERROR"
	CodeVCSError         Code = "VCS_ERROR"
	CodeOperatorDeclined Code = "OPERATOR_DECLINED"
)

func (c Code) String() string {
	return string(c)
}

// IsConfigurationError reports whether the code belongs to the local
// configuration family (unreadable, unparsable or invalid app config).
func (c Code) IsConfigurationError() bool {
	switch c {
	case CodeConfigValidation, CodeConfigReadError, CodeConfigParseError, CodeConfigNotFound, CodeConfigExists:
		return true
	}
	return false
}

// IsReleaseLookupError reports whether the code belongs to the release API family.
func (c Code) IsReleaseLookupError() bool {
	switch c {
	case CodeReleaseLookup, CodeNoDeployableRelease, CodePlatformAuthError, CodeTimeout:
		return true
	}
	return false
}
