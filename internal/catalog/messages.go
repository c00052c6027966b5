package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes shown to operators. Support staff look up the code in the
// logs to find the technical error.
//
//	FILE001  file not found
//	FILE002  file unreadable or not valid CSV
//	FILE003  file too large
//	FILE004  no file provided
//	FILE005  empty file
//	VAL001   header layout not recognised
//	VAL002   unknown entity
//	VAL003   invalid export filter
//	IMP001   import busy
//	IMP002   batch transaction failed
//	IMP003   request cancelled
//	IMP004   request timed out
//	BAK001   backup failed
//	DB001    unique constraint violated
//	DB002    foreign key violated
//	DB003    database unreachable
//	DB004    deadlock
//	ERR000   anything else
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// Sentinels are checked before text patterns; order matters because
// ErrTransactionBatch and ErrBackupFailed usually wrap a driver error.
var sentinelMessages = []sentinelMessage{
	{ErrBackupFailed, UserMessage{"Backup could not be created, import was not started", "Check storage permissions and free space, then retry", "BAK001"}},
	{ErrTransactionBatch, UserMessage{"Import stopped after a database transaction failed", "Earlier batches were saved. Fix the database issue and re-run the import", "IMP002"}},
	{ErrEmptyFile, UserMessage{"The file is empty", "Upload a CSV file with a header row", "FILE005"}},
	{ErrFormatMismatch, UserMessage{"CSV header does not match the expected columns", "Use the column names from an export of the same catalog", "VAL001"}},
	{ErrUnknownEntity, UserMessage{"Unknown catalog type", "Use parts or models", "VAL002"}},
	{ErrInvalidFilter, UserMessage{"Export filter is not valid", "Use numeric ids for category_id and brand_id", "VAL003"}},
	{ErrFileNotFound, UserMessage{"Import file not found", "Check the file path", "FILE001"}},
	{ErrFileUnreadable, UserMessage{"Import file could not be read", "Save the file as UTF-8 CSV and try again", "FILE002"}},
	{ErrImportBusy, UserMessage{"Another import is in progress", "Wait for it to finish and try again", "IMP001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "IMP003"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Split the file or raise IMPORT_TIMEOUT", "IMP004"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"file too large", UserMessage{"File exceeds maximum size limit", "Split the file into smaller chunks", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to import", "FILE004"}},
	{"unique constraint", UserMessage{"A record with this key already exists", "Check for duplicate rows in your CSV", "DB001"}},
	{"duplicate key", UserMessage{"A record with this key already exists", "Check for duplicate rows in your CSV", "DB001"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Import brands and categories first", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB003"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB004"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
// Known sentinels win over text patterns; unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
