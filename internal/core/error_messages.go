// Package core provides the business logic for agent statistics imports.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users quote the code; support looks it up here.
//
// # Import Errors (CSV001-CSV099, IMP001-IMP099)
//
//	CSV001 - Empty file: The CSV has no header or no data rows
//	         Action: Export the report again including the header row
//	         Match: ErrFormat with "empty or missing headers"
//
//	CSV002 - Unknown format: The header matches neither recognized export
//	         Action: Upload a Genesys report ("Agent Name") or a ServiceNow report ("Assigned to")
//	         Match: ErrFormat
//
//	CSV003 - File too large: The file exceeds the configured size limit
//	         Action: Split the export into smaller date ranges
//	         Match: ErrFileTooLarge
//
//	IMP001 - No matching agents: No imported name matches a team member
//	         Action: Ensure agent names in the app match the names in the CSV
//	         Match: ErrNoMatch
//
//	IMP002 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Match: ErrTooManyImports
//
// # Agent Errors (AGT001-AGT099)
//
//	AGT001 - Duplicate agent: An agent with this name already exists on the team
//	AGT002 - Agent not found: The agent does not exist or belongs to another team
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid input: The request failed validation
//
// # Database Errors (DB004-DB099)
//
//	DB004 - Connection refused        Patterns: "connection refused"
//	DB005 - Connection reset          Patterns: "connection reset"
//	DB006 - Timeout                   Patterns: "timeout", "context deadline exceeded"
//	DB007 - Deadlock                  Patterns: "deadlock"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests       Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// technical error logged alongside the request id.
//
// # Matching
//
// Sentinel errors are matched with errors.Is first, in table order, so a
// wrapped sentinel always wins over a text pattern. Text patterns are then
// matched case-insensitively with strings.Contains; first match wins.
package core

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	// contains narrows the match to errors whose text includes it.
	contains string
	msg      UserMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var sentinelMessages = []sentinelMessage{
	{
		target:   ErrFormat,
		contains: "empty or missing headers",
		msg: UserMessage{
			Message: "The CSV is empty or missing its header row",
			Action:  "Export the report again including the header row",
			Code:    "CSV001",
		},
	},
	{
		target: ErrFormat,
		msg: UserMessage{
			Message: "Unknown CSV format",
			Action:  `Upload a Genesys report ("Agent Name") or a ServiceNow report ("Assigned to")`,
			Code:    "CSV002",
		},
	},
	{
		target: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the export into smaller date ranges",
			Code:    "CSV003",
		},
	},
	{
		target: ErrNoMatch,
		msg: UserMessage{
			Message: "No matching agents found",
			Action:  "Ensure agent names in the app match the names in the CSV",
			Code:    "IMP001",
		},
	},
	{
		target: ErrTooManyImports,
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP002",
		},
	},
	{
		target: ErrDuplicateAgent,
		msg: UserMessage{
			Message: "An agent with this name already exists on the team",
			Action:  "Use a different name or remove the existing agent first",
			Code:    "AGT001",
		},
	},
	{
		target: ErrAgentNotFound,
		msg: UserMessage{
			Message: "Agent not found",
			Action:  "Refresh the team list and try again",
			Code:    "AGT002",
		},
	},
	{
		target: ErrValidation,
		msg: UserMessage{
			Message: "The request contains invalid values",
			Action:  "Check the highlighted fields; counts must be zero or more",
			Code:    "VAL001",
		},
	},
}

var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, sm := range sentinelMessages {
		if !errors.Is(err, sm.target) {
			continue
		}
		if sm.contains != "" && !strings.Contains(errStr, sm.contains) {
			continue
		}
		return sm.msg
	}

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
