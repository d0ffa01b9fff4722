// Package errors provides categorized errors for the flag marketplace client.
// Every error carries a message fit for direct display; callers never show a
// raw exception or stack to the end user.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a client error
type ErrorCategory string

const (
	// CategoryValidation represents failures caught before any network call
	CategoryValidation ErrorCategory = "validation"
	// CategoryAPI represents marketplace API failures; the server-provided
	// message is carried verbatim
	CategoryAPI ErrorCategory = "api"
	// CategoryWallet represents signing failures or user rejection; no
	// on-chain effect occurred
	CategoryWallet ErrorCategory = "wallet"
	// CategoryRecording represents the partial failure where the blockchain
	// transaction succeeded but persisting it to the API failed
	CategoryRecording ErrorCategory = "recording"
	// CategoryNotFound represents a missing resource
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryConfig represents invalid or missing configuration
	CategoryConfig ErrorCategory = "config"
)

// ClientError represents a categorized error with a user-facing message
type ClientError struct {
	Category ErrorCategory
	Code     string
	Message  string
	// TxHash is set on recording errors so the confirmed on-chain effect
	// stays visible to the user for manual recovery
	TxHash string
	Cause  error
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the message suitable for direct display.
func (e *ClientError) UserMessage() string {
	if e.Category == CategoryRecording {
		return fmt.Sprintf("%s (transaction %s is confirmed on-chain; retry recording or contact support)", e.Message, e.TxHash)
	}
	return e.Message
}

// NewValidationError creates a validation error; no network call was made
func NewValidationError(message string) *ClientError {
	return &ClientError{
		Category: CategoryValidation,
		Code:     "VALIDATION_FAILED",
		Message:  message,
	}
}

// NewAPIError creates an API error carrying the server message verbatim
func NewAPIError(statusCode int, serverMessage string, cause error) *ClientError {
	if serverMessage == "" {
		serverMessage = fmt.Sprintf("marketplace API request failed with status %d", statusCode)
	}
	return &ClientError{
		Category: CategoryAPI,
		Code:     "API_ERROR",
		Message:  serverMessage,
		Cause:    cause,
	}
}

// NewNetworkError creates an API-category error for transport failures
func NewNetworkError(cause error) *ClientError {
	return &ClientError{
		Category: CategoryAPI,
		Code:     "NETWORK_ERROR",
		Message:  "could not reach the marketplace API",
		Cause:    cause,
	}
}

// NewWalletError creates a wallet signing error; no on-chain effect occurred
func NewWalletError(message string, cause error) *ClientError {
	return &ClientError{
		Category: CategoryWallet,
		Code:     "WALLET_ERROR",
		Message:  message,
		Cause:    cause,
	}
}

// NewRecordingError creates the partial-failure error: the transaction is
// confirmed on-chain but the API call persisting it failed. The tx hash is
// kept so the user can retry recording manually; the transaction itself must
// never be resubmitted.
func NewRecordingError(txHash string, cause error) *ClientError {
	return &ClientError{
		Category: CategoryRecording,
		Code:     "RECORDING_FAILED",
		Message:  "your transaction succeeded but recording it with the marketplace failed",
		TxHash:   txHash,
		Cause:    cause,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *ClientError {
	return &ClientError{
		Category: CategoryNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *ClientError {
	return &ClientError{
		Category: CategoryConfig,
		Code:     "CONFIG_ERROR",
		Message:  message,
	}
}

// CategoryOf returns the category of an error, or CategoryAPI for
// uncategorized errors (the conservative default for anything that crossed
// the network).
func CategoryOf(err error) ErrorCategory {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryAPI
}

// IsValidation reports whether the error was caught before any network call.
func IsValidation(err error) bool {
	return CategoryOf(err) == CategoryValidation
}

// IsRecording reports whether the error is the partial tx-confirmed /
// persistence-failed state.
func IsRecording(err error) bool {
	return CategoryOf(err) == CategoryRecording
}

// Retryable reports whether an automatic retry is ever permitted for the
// error. Only idempotent reads may retry; every mutating action is terminal
// and recovery is manual.
func Retryable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Code == "NETWORK_ERROR"
	}
	return false
}
