package apperrors

type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeAuthorization       Code = "AUTHORIZATION"
	CodeInvalidState        Code = "INVALID_STATE"
	CodeForbiddenTransition Code = "FORBIDDEN_TRANSITION"
	CodePrecondition        Code = "PRECONDITION"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeContextResolution   Code = "CONTEXT_RESOLUTION"
	CodeStoreConflict       Code = "STORE_CONFLICT"
	CodeInternal            Code = "INTERNAL"
)
