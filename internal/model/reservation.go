package model

import (
    "fmt"
    "strconv"
)

// Reservation records one booked room-night window. A reservation is
// immutable once created; cancellation removes it wholesale rather than
// mutating it. The occupied days are StartDay..StartDay+Nights-1, always
// inside a single seven-day cycle (see ValidWindow).
//
// Fields:
//  ID        – unique identifier, a random UUID generated at creation.
//  Username  – owner, spelled as registered.
//  Category  – room class of the booked room.
//  RoomIndex – 1-based room index within the category.
//  StartDay  – first occupied cycle day, 1..7.
//  Nights    – number of consecutive occupied days, 1..7.
type Reservation struct {
    ID        string
    Username  string
    Category  Category
    RoomIndex int
    StartDay  int
    Nights    int
}

// RoomID returns the stable identifier of the booked room, e.g. "P4".
func (r Reservation) RoomID() string { return RoomID(r.Category, r.RoomIndex) }

// Days returns the occupied cycle days in ascending order.
func (r Reservation) Days() []int {
    days := make([]int, 0, r.Nights)
    for d := r.StartDay; d < r.StartDay+r.Nights; d++ {
        days = append(days, d)
    }
    return days
}

// WireEntry renders the reservation in the form the MY_RES response uses:
// "<id>|<roomId>@<startDay>x<nights>". Clients split on '|', '@' and 'x'
// to recover the parts, so none of those characters may appear elsewhere
// in the entry.
func (r Reservation) WireEntry() string {
    return r.ID + "|" + r.RoomID() + "@" + strconv.Itoa(r.StartDay) + "x" + strconv.Itoa(r.Nights)
}

// String implements fmt.Stringer for log output.
func (r Reservation) String() string {
    return fmt.Sprintf("%s %s %s day %d x%d", r.ID, r.Username, r.RoomID(), r.StartDay, r.Nights)
}
