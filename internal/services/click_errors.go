package services

// Click SHOP API error codes. Every webhook response resolves to exactly one
// of these; the table is fixed by the protocol.
const (
	ClickSuccess                 = 0
	ClickErrSignCheckFailed      = -1
	ClickErrInvalidAmount        = -2
	ClickErrActionNotFound       = -3
	ClickErrAlreadyDone          = -4
	ClickErrUserNotFound         = -5
	ClickErrTransactionNotFound  = -6
	ClickErrBadRequest           = -8
	ClickErrTransactionCancelled = -9
)

var clickErrorNotes = map[int]string{
	ClickSuccess:                 "Success",
	ClickErrSignCheckFailed:      "Sign check failed",
	ClickErrInvalidAmount:        "Incorrect parameter amount",
	ClickErrActionNotFound:       "Action not found",
	ClickErrAlreadyDone:          "Already paid",
	ClickErrUserNotFound:         "User does not exist",
	ClickErrTransactionNotFound:  "Transaction does not exist",
	ClickErrBadRequest:           "Error in request from click",
	ClickErrTransactionCancelled: "Transaction cancelled",
}

// ClickErrorNote returns the human-readable note for a Click error code.
func ClickErrorNote(code int) string {
	if note, ok := clickErrorNotes[code]; ok {
		return note
	}
	return "Unknown error"
}
