package model // package model holds the value records shared by the store and handlers

import (
    "strconv" // strconv converts room indexes to and from their string form
    "strings" // strings provides case-insensitive comparisons for categories and ids
)

// Dimensions of the fixed inventory: three categories of five rooms each,
// bookable over a repeating seven-day cycle. These are not configurable;
// the availability grid, the wire protocol and the persisted files all
// assume exactly these sizes.
const (
    NumCategories    = 3
    RoomsPerCategory = 5
    CycleDays        = 7
)

// Category identifies one of the three room classes. The zero value is
// CategoryStandard; values outside the declared constants are invalid.
type Category int

const (
    CategoryStandard Category = iota // STANDARD rooms, ids S1..S5
    CategoryPremium                  // PREMIUM rooms, ids P1..P5
    CategorySuite                    // SUITE rooms, ids U1..U5
)

// categoryNames maps a Category to its canonical protocol spelling.
var categoryNames = [NumCategories]string{"STANDARD", "PREMIUM", "SUITE"}

// categoryPrefixes maps a Category to the one-letter prefix used in room ids.
// SUITE uses "U" rather than "S" to stay distinct from STANDARD.
var categoryPrefixes = [NumCategories]string{"S", "P", "U"}

// String returns the canonical upper-case name of the category.
func (c Category) String() string {
    if c < 0 || int(c) >= NumCategories {
        return "UNKNOWN"
    }
    return categoryNames[c]
}

// Valid reports whether c is one of the three declared categories.
func (c Category) Valid() bool { return c >= 0 && int(c) < NumCategories }

// ParseCategory resolves a protocol token into a Category. Matching is
// case-insensitive. The second return value is false for unknown names.
func ParseCategory(s string) (Category, bool) {
    s = strings.ToUpper(strings.TrimSpace(s))
    for i, name := range categoryNames {
        if s == name {
            return Category(i), true
        }
    }
    return 0, false
}

// RoomID formats the stable identifier for a room, e.g. RoomID(CategoryStandard, 1)
// returns "S1". The index must be in 1..RoomsPerCategory; out-of-range
// indexes yield the empty string.
func RoomID(c Category, index int) string {
    if !c.Valid() || index < 1 || index > RoomsPerCategory {
        return ""
    }
    return categoryPrefixes[c] + strconv.Itoa(index)
}

// ParseRoomID resolves a room id like "S3" against the given category and
// returns the 1-based room index. It fails when the prefix does not belong
// to the category or the index falls outside 1..RoomsPerCategory.
func ParseRoomID(c Category, id string) (int, bool) {
    if !c.Valid() {
        return 0, false
    }
    id = strings.ToUpper(strings.TrimSpace(id))
    prefix := categoryPrefixes[c]
    if len(id) < 2 || !strings.HasPrefix(id, prefix) {
        return 0, false
    }
    n, err := strconv.Atoi(id[len(prefix):])
    if err != nil || n < 1 || n > RoomsPerCategory {
        return 0, false
    }
    return n, true
}

// Room identifies a single physical room by category and 1-based index.
type Room struct {
    Category Category
    Index    int
}

// ID returns the room's stable identifier string.
func (r Room) ID() string { return RoomID(r.Category, r.Index) }

// ValidWindow reports whether a requested stay fits inside the seven-day
// cycle. The policy is hard rejection: a window is valid only when
// startDay and nights are both in 1..CycleDays and the stay ends on or
// before the last cycle day. Windows never wrap around the cycle boundary.
func ValidWindow(startDay, nights int) bool {
    if startDay < 1 || startDay > CycleDays {
        return false
    }
    if nights < 1 || nights > CycleDays {
        return false
    }
    return startDay+nights-1 <= CycleDays
}
