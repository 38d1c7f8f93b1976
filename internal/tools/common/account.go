package common

import "regexp"

// DefaultAccount is used when a tool call does not select an account.
const DefaultAccount = "default"

var accountRe = regexp.MustCompile(AccountPattern)

// AccountFromArgs extracts the account name from request arguments,
// defaulting to DefaultAccount when absent or empty.
//
// The value is assumed to have passed shape validation already; callers that
// bypass schema validation should check ValidAccountName themselves.
func AccountFromArgs(args map[string]interface{}) string {
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return DefaultAccount
}

// ValidAccountName reports whether name matches the restricted account
// identifier pattern. Account names become token cache file names, so
// anything outside the pattern is rejected outright.
func ValidAccountName(name string) bool {
	return name != "" && accountRe.MatchString(name)
}
