package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrNotVerified        ErrCode = "EMAIL_NOT_VERIFIED"
	ErrCodeInvalid        ErrCode = "CODE_INVALID"
	ErrCodeExpired        ErrCode = "CODE_EXPIRED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"
	ErrNotOwner  ErrCode = "NOT_RESOURCE_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz / proctoring ─────────────────────────────────────────────
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrIncompleteAnswers ErrCode = "INCOMPLETE_ANSWERS"
	ErrAttemptTerminal   ErrCode = "ATTEMPT_ALREADY_FINISHED"
	ErrDisqualified      ErrCode = "ATTEMPT_DISQUALIFIED"

	// ─── Voice ─────────────────────────────────────────────────────────
	ErrSpeechUnsupported ErrCode = "SPEECH_UNSUPPORTED"
	ErrMicDenied         ErrCode = "MICROPHONE_DENIED"
	ErrPlaybackBusy      ErrCode = "PLAYBACK_BUSY"

	// ─── Generation ────────────────────────────────────────────────────
	ErrGenerationFailed ErrCode = "GENERATION_FAILED"
	ErrEmptySource      ErrCode = "EMPTY_SOURCE_TEXT"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrNotVerified:
		return "Please verify your email address before logging in."
	case ErrCodeInvalid:
		return "The code you entered is not valid."
	case ErrCodeExpired:
		return "This code has expired. Request a new one."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrNotOwner:
		return "Only the owner can modify this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is not valid."
	case ErrInvalidPayload:
		return "The request payload is not valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Quiz / proctoring ─────────────────────────────────────────────
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrIncompleteAnswers:
		return "Please answer all questions before submitting."
	case ErrAttemptTerminal:
		return "This attempt has already been submitted or disqualified."
	case ErrDisqualified:
		return "This attempt was disqualified for leaving the quiz too many times."

	// ─── Voice ─────────────────────────────────────────────────────────
	case ErrSpeechUnsupported:
		return "Speech recognition is not available on this device."
	case ErrMicDenied:
		return "Microphone access was denied."
	case ErrPlaybackBusy:
		return "Another audio response is still loading."

	// ─── Generation ────────────────────────────────────────────────────
	case ErrGenerationFailed:
		return "Content generation failed. Please try again."
	case ErrEmptySource:
		return "No source text was provided."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "This file type is not supported."
	case ErrFileTooLarge:
		return "The file exceeds the maximum upload size."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
