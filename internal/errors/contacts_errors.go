package errors

// 参数错误，未进行任何 I/O

func InvalidArguments(format string, args ...any) *Error {
	return Newf(nil, CodeInvalidArguments, format, args...).WithStack()
}

func MissingArgument(name string) *Error {
	return Newf(nil, CodeInvalidArguments, "missing required argument: %s", name).WithStack()
}

// 权限相关错误

func PermissionDenied(status string) *Error {
	return Newf(nil, CodePermissionDenied, "contacts permission not granted: %s", status).WithStack()
}

func PermissionFailed(cause error) *Error {
	return New(cause, CodePermissionError, "failed to request contacts permission").WithStack()
}

// 联系人相关错误

func ContactNotFound(id string) *Error {
	return Newf(nil, CodeContactNotFound, "contact not found: %s", id).WithStack()
}

func FetchFailed(cause error) *Error {
	return Wrap(cause, CodeFetchError, "failed to fetch contacts")
}

func SearchFailed(cause error) *Error {
	return Wrap(cause, CodeSearchError, "failed to search contacts")
}

func CreateFailed(cause error) *Error {
	return Wrap(cause, CodeCreateError, "failed to create contact")
}

func UpdateFailed(cause error) *Error {
	return Wrap(cause, CodeUpdateError, "failed to update contact")
}

func DeleteFailed(cause error) *Error {
	return Wrap(cause, CodeDeleteError, "failed to delete contact")
}

// 宿主环境相关错误

func NoContext(reason string) *Error {
	return Newf(nil, CodeNoContext, "contact store not available: %s", reason).WithStack()
}

func NoActivity() *Error {
	return New(nil, CodeNoActivity, "no prompter attached to request permission").WithStack()
}

func NotImplemented(method string) *Error {
	return Newf(nil, CodeNotImplemented, "method not implemented: %s", method).WithStack()
}

func BackendUnsupported(kind string) *Error {
	return Newf(nil, CodeInvalidArguments, "unsupported backend: %s", kind).WithStack()
}

func Internal(message string, cause error) *Error {
	return New(cause, CodeInternal, message).WithStack()
}
