package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidPeriod        ErrorCode = 101
	ErrCodeInvalidThreshold     ErrorCode = 102
	ErrCodeInvalidDeviation     ErrorCode = 103
	ErrCodeInvalidRiskFraction  ErrorCode = 104
	ErrCodeInvalidCommission    ErrorCode = 105
	ErrCodeInvalidInitialCash   ErrorCode = 106
	ErrCodeInvalidStake         ErrorCode = 107

	// Input series errors (200-299)
	ErrCodeEmptySeries     ErrorCode = 200
	ErrCodeUnsortedSeries  ErrorCode = 201
	ErrCodeDuplicateBar    ErrorCode = 202
	ErrCodeInvalidBar      ErrorCode = 203
	ErrCodeIndexOutOfRange ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeInsufficientData       ErrorCode = 303

	// Sizing errors (400-499)
	ErrCodeInvalidPrice  ErrorCode = 400
	ErrCodeInvalidEquity ErrorCode = 401

	// Simulation errors (500-599)
	ErrCodeOrderPending   ErrorCode = 500
	ErrCodeInvalidOrder   ErrorCode = 501
	ErrCodeNoPosition     ErrorCode = 502
	ErrCodeRunNotFinished ErrorCode = 503

	// Ledger errors (600-699)
	ErrCodeLedgerInitFailed  ErrorCode = 600
	ErrCodeLedgerQueryFailed ErrorCode = 601
	ErrCodeLedgerWriteFailed ErrorCode = 602

	// Feed errors (700-799)
	ErrCodeFeedOpenFailed  ErrorCode = 700
	ErrCodeFeedReadFailed  ErrorCode = 701
	ErrCodeFeedParseFailed ErrorCode = 702
)
