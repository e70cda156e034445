// Package limits provides centralized argument limits for the chatcore
// messaging system. This ensures consistent validation across different
// components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxBodyLength is the maximum length of a message body in bytes.
	// Larger payloads belong in an attachment store, not the routing core.
	MaxBodyLength = 4096

	// MaxDisplayNameLength is the maximum length of a group display name.
	MaxDisplayNameLength = 128

	// MaxMetadataEntries is the maximum number of opaque metadata
	// key/value pairs carried on a single message.
	MaxMetadataEntries = 32

	// DefaultHistoryPageSize is used when a history caller passes a
	// non-positive limit.
	DefaultHistoryPageSize = 50
)

var (
	// ErrEmptyBody indicates an empty message body was provided.
	ErrEmptyBody = errors.New("empty message body")

	// ErrBodyTooLarge indicates a message body exceeds MaxBodyLength.
	ErrBodyTooLarge = errors.New("message body too large")

	// ErrEmptyPrincipal indicates a missing principal identifier.
	ErrEmptyPrincipal = errors.New("empty principal id")

	// ErrEmptyChatID indicates a missing chat identifier.
	ErrEmptyChatID = errors.New("empty chat id")

	// ErrEmptyParticipants indicates a group was created with no members.
	ErrEmptyParticipants = errors.New("empty participants list")

	// ErrNameTooLarge indicates a display name exceeds MaxDisplayNameLength.
	ErrNameTooLarge = errors.New("display name too large")

	// ErrTooMuchMetadata indicates a message carries more metadata entries
	// than MaxMetadataEntries.
	ErrTooMuchMetadata = errors.New("too many metadata entries")

	// ErrNilCapability indicates a presence registration without a
	// delivery capability.
	ErrNilCapability = errors.New("nil delivery capability")
)

// ValidateBody validates a message body against MaxBodyLength.
// Returns an error with context including the actual and maximum sizes.
func ValidateBody(body string) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if len(body) > MaxBodyLength {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrBodyTooLarge, len(body), MaxBodyLength)
	}
	return nil
}

// ValidateDisplayName validates a group display name. An empty name is
// permitted; only the upper bound is enforced.
func ValidateDisplayName(name string) error {
	if len(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrNameTooLarge, len(name), MaxDisplayNameLength)
	}
	return nil
}

// ValidatePrincipalID validates a principal identifier is non-empty.
func ValidatePrincipalID(id string) error {
	if len(id) == 0 {
		return ErrEmptyPrincipal
	}
	return nil
}

// ValidateChatID validates a chat identifier is non-empty.
func ValidateChatID(id string) error {
	if len(id) == 0 {
		return ErrEmptyChatID
	}
	return nil
}

// ValidateMetadata validates the entry count of an opaque metadata map.
func ValidateMetadata(metadata map[string]string) error {
	if len(metadata) > MaxMetadataEntries {
		return fmt.Errorf("%w: %d entries exceeds limit %d", ErrTooMuchMetadata, len(metadata), MaxMetadataEntries)
	}
	return nil
}
