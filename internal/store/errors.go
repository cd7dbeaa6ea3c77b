// Package store owns the availability grid, the credential table and the
// reservation ledger. These sentinel values let the protocol layer map
// each domain failure onto its wire-level ERR line without inspecting
// error text.
package store

import "errors"

// ErrUserExists is returned by Register when the username is already
// taken, compared case-insensitively.
var ErrUserExists = errors.New("user exists")

// ErrNoSuchUser is returned by Login when the username is unknown.
var ErrNoSuchUser = errors.New("no such user")

// ErrBadCredentials is returned by Login when the username exists but the
// password does not match exactly.
var ErrBadCredentials = errors.New("bad credentials")

// ErrBadWindow is returned when a requested stay falls outside the
// seven-day cycle (see model.ValidWindow).
var ErrBadWindow = errors.New("invalid day window")

// ErrNoSuchRoom is returned by Reserve when the room id does not name a
// room of the requested category.
var ErrNoSuchRoom = errors.New("no such room")

// ErrNoAvail is returned by Reserve when at least one day of the
// requested window is already occupied.
var ErrNoAvail = errors.New("room not available")

// ErrNoSuchReservation is returned by Cancel when no active reservation
// with the given id belongs to the given user.
var ErrNoSuchReservation = errors.New("no such reservation")
