package wizard

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal wizard transition")
	ErrNoPreviousStep    = errors.New("no previous step")
	ErrBackNotAllowed    = errors.New("back navigation not allowed on this step")
	ErrAlreadySending    = errors.New("message is already being sent")
	ErrAlreadySent       = errors.New("message was already sent")
	ErrNotSending        = errors.New("no send in progress")
	ErrLocked            = errors.New("message can no longer be edited")
	ErrFixedRecipient    = errors.New("recipient is fixed for member contact")
)
