package model

import "strings"

// User is a registered account as stored in the users file. Accounts are
// created once by REGISTER and never mutated or deleted afterwards.
// Usernames are unique case-insensitively; Username preserves the spelling
// used at registration time. The password is stored and compared in
// plaintext, which is an accepted limitation of this system rather than
// an oversight.
type User struct {
    Username string
    Password string
}

// Key returns the canonical lookup key for a username. All case-insensitive
// uniqueness checks go through this single normalization.
func Key(username string) string { return strings.ToLower(username) }
