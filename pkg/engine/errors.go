package engine

// ErrorCode is a stable, string error identifier surfaced in both
// transport-level bodies and transaction envelopes.
type ErrorCode string

// Transport/auth codes: surfaced with a non-200 HTTP status and the
// simple {errorCode, errorMessage} body, never the transaction envelope.
const (
	ErrInstanceNotFound ErrorCode = "INSTANCE_NOT_FOUND"
	ErrInstanceMismatch ErrorCode = "INSTANCE_MISMATCH"
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
)

// Precondition (domain) codes: surfaced with HTTP 200 and
// accepted=false in the transaction envelope.
const (
	ErrAlreadyExists          ErrorCode = "ALREADY_EXISTS"
	ErrDuplicateAPIKey        ErrorCode = "DUPLICATE_API_KEY"
	ErrPlayerNotFound         ErrorCode = "PLAYER_NOT_FOUND"
	ErrCharacterNotFound      ErrorCode = "CHARACTER_NOT_FOUND"
	ErrGearNotFound           ErrorCode = "GEAR_NOT_FOUND"
	ErrGearAlreadyEquipped    ErrorCode = "GEAR_ALREADY_EQUIPPED"
	ErrGearNotEquipped        ErrorCode = "GEAR_NOT_EQUIPPED"
	ErrCharacterMismatch      ErrorCode = "CHARACTER_MISMATCH"
	ErrOwnershipViolation     ErrorCode = "OWNERSHIP_VIOLATION"
	ErrInvalidConfigReference ErrorCode = "INVALID_CONFIG_REFERENCE"
	ErrInvalidSlot            ErrorCode = "INVALID_SLOT"
	ErrSlotIncompatible       ErrorCode = "SLOT_INCOMPATIBLE"
	ErrSlotOccupied           ErrorCode = "SLOT_OCCUPIED"
	ErrRestrictionFailed      ErrorCode = "RESTRICTION_FAILED"
	ErrMaxLevelReached        ErrorCode = "MAX_LEVEL_REACHED"
	ErrInsufficientResources  ErrorCode = "INSUFFICIENT_RESOURCES"
	ErrUnsupportedTxType      ErrorCode = "UNSUPPORTED_TX_TYPE"
)

// Read-path (non-200) codes, reused from the transport/domain sets above:
// CHARACTER_NOT_FOUND (404) and INSTANCE_NOT_FOUND (404).

// transportStatus maps a transport/auth error code to its HTTP status.
var transportStatus = map[ErrorCode]int{
	ErrInstanceNotFound: 404,
	ErrInstanceMismatch: 400,
	ErrUnauthorized:     401,
	ErrConfigNotFound:   500,
}

// TransportError is the {errorCode, errorMessage} body returned for
// every non-200 response — both transport failures on the transaction
// path and non-200 read-path failures.
type TransportError struct {
	ErrorCode    ErrorCode `json:"errorCode"`
	ErrorMessage string    `json:"errorMessage"`
}
