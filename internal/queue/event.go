// Package queue defines the message payloads exchanged over the message
// broker and the background consumer that turns them into an audit trail.
package queue

// ReservationConfirmedEvent is published when a booking is confirmed. It
// carries enough information for downstream consumers to log or notify
// without querying the server.
type ReservationConfirmedEvent struct {
    ReservationID string `json:"reservation_id"`
    Username      string `json:"username"`
    Category      string `json:"category"`
    RoomID        string `json:"room_id"`
    StartDay      int    `json:"start_day"`
    Nights        int    `json:"nights"`
    ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationCanceledEvent is published when an active reservation is
// canceled and its room-nights return to the available pool.
type ReservationCanceledEvent struct {
    ReservationID string `json:"reservation_id"`
    Username      string `json:"username"`
    RoomID        string `json:"room_id"`
    StartDay      int    `json:"start_day"`
    Nights        int    `json:"nights"`
    CanceledAt    string `json:"canceled_at"`
}
