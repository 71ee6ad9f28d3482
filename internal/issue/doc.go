// SPDX-License-Identifier: MPL-2.0

// Package issue presents failures to users: ActionableError carries the failed
// operation, the resource involved and suggestions, and the issue catalog holds
// longer markdown explanations rendered with glamour (`execstream issue <name>`).
package issue
