package response

// ErrCode is a machine-readable error code carried by every error response.
type ErrCode string

const (
	// Generic
	ErrCodeInternal     ErrCode = "INTERNAL_ERROR"
	ErrCodeBadRequest   ErrCode = "BAD_REQUEST"
	ErrCodeValidation   ErrCode = "VALIDATION_FAILED"
	ErrCodeNotFound     ErrCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrCode = "FORBIDDEN"
	ErrCodeTooMany      ErrCode = "TOO_MANY_REQUESTS"

	// Auth
	ErrCodeInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrCodeSessionExpired     ErrCode = "SESSION_EXPIRED"
	ErrCodeTokenMalformed     ErrCode = "TOKEN_MALFORMED"

	// Courses and drafts
	ErrCodeCourseNotFound    ErrCode = "COURSE_NOT_FOUND"
	ErrCodeDraftNotFound     ErrCode = "DRAFT_NOT_FOUND"
	ErrCodeDraftMalformed    ErrCode = "DRAFT_MALFORMED"
	ErrCodeDraftInvalid      ErrCode = "DRAFT_INVALID"
	ErrCodeDraftVersion      ErrCode = "DRAFT_VERSION_UNSUPPORTED"
	ErrCodeCommitFailed      ErrCode = "COMMIT_FAILED"
	ErrCodeApprovalNotFound  ErrCode = "APPROVAL_DRAFT_NOT_FOUND"
	ErrCodeAssetPromotion    ErrCode = "ASSET_PROMOTION_FAILED"
	ErrCodeCategoryNotFound  ErrCode = "CATEGORY_NOT_FOUND"
	ErrCodeCourseNotYours    ErrCode = "COURSE_NOT_OWNED"
	ErrCodeCoursePublished   ErrCode = "COURSE_ALREADY_PUBLISHED"
	ErrCodeWebsocketUpgrade  ErrCode = "WEBSOCKET_UPGRADE_FAILED"
)

var errMessages = map[ErrCode]string{
	ErrCodeInternal:     "Something went wrong on our side. Please try again later.",
	ErrCodeBadRequest:   "The request could not be understood.",
	ErrCodeValidation:   "Some fields did not pass validation.",
	ErrCodeNotFound:     "The requested resource was not found.",
	ErrCodeUnauthorized: "You must be signed in to access this resource.",
	ErrCodeForbidden:    "You do not have permission to access this resource.",
	ErrCodeTooMany:      "Too many requests. Please slow down.",

	ErrCodeInvalidCredentials: "Email or password is incorrect.",
	ErrCodeSessionExpired:     "Your session has expired. Please sign in again.",
	ErrCodeTokenMalformed:     "The authentication token is malformed.",

	ErrCodeCourseNotFound:   "The course was not found.",
	ErrCodeDraftNotFound:    "The course has no staged draft.",
	ErrCodeDraftMalformed:   "The draft document could not be parsed.",
	ErrCodeDraftInvalid:     "The draft has blocking problems and cannot be published.",
	ErrCodeDraftVersion:     "The draft document version is not supported.",
	ErrCodeCommitFailed:     "The draft could not be committed. No changes were applied.",
	ErrCodeApprovalNotFound: "No approval snapshot exists for this course.",
	ErrCodeAssetPromotion:   "Draft assets could not be promoted to production storage.",
	ErrCodeCategoryNotFound: "The selected category does not exist.",
	ErrCodeCourseNotYours:   "You can only edit courses you own.",
	ErrCodeCoursePublished:  "The course is already published.",
	ErrCodeWebsocketUpgrade: "The connection could not be upgraded to a websocket.",
}

// GetMessage returns the human-readable message for an error code.
func GetMessage(code ErrCode) string {
	if msg, ok := errMessages[code]; ok {
		return msg
	}
	return errMessages[ErrCodeInternal]
}
