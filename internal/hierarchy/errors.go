package hierarchy

import "errors"

// Taksonomia błędów operacji na drzewie. Handlery mapują je przez errors.Is
// na kody HTTP; nic spod tej warstwy nie wycieka wyżej bez opakowania.
var (
	ErrNotFound        = errors.New("node not found")
	ErrNameConflict    = errors.New("a node with the same name already exists in the target folder")
	ErrCycle           = errors.New("cannot move a folder into itself or its subtree")
	ErrQuotaExceeded   = errors.New("user storage quota not enough")
	ErrValidation      = errors.New("invalid input")
	ErrExternalService = errors.New("external service failure")
)
