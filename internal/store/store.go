package store

import (
    "fmt"
    "sync"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/sahararesort/reservation/internal/model"
    "github.com/sahararesort/reservation/internal/repository"
)

// Store is the single owner of all shared mutable state: the 3x5x7
// availability grid, the credential table and the reservation ledger.
// One mutex guards all three together, so every exported method is an
// all-or-nothing transaction and concurrent reserves for the same
// room-night can never both succeed.
//
// Persistence failures are deliberately tolerated: a register or reserve
// that cannot be written to disk still succeeds in memory and is logged
// at error level. The system trades durability for availability here.
type Store struct {
    mu sync.Mutex

    // grid[c][room-1][day-1] is true when the room-night is free.
    grid [model.NumCategories][model.RoomsPerCategory][model.CycleDays]bool

    users  map[string]model.User // keyed by model.Key(username)
    ledger []model.Reservation   // insertion order, all users interleaved

    userRepo *repository.UserRepo
    resRepo  *repository.ReservationRepo
    log      *zap.Logger
}

// New builds a Store from the persisted files. The grid starts fully
// available and each loaded reservation is replayed onto it. A loaded
// record whose window collides with an already-replayed one is dropped
// with a warning instead of corrupting the grid: after replay the grid
// and the ledger always agree (a day is blocked iff an active reservation
// covers it).
func New(userRepo *repository.UserRepo, resRepo *repository.ReservationRepo, log *zap.Logger) (*Store, error) {
    s := &Store{
        users:    make(map[string]model.User),
        userRepo: userRepo,
        resRepo:  resRepo,
        log:      log,
    }
    for c := range s.grid {
        for r := range s.grid[c] {
            for d := range s.grid[c][r] {
                s.grid[c][r][d] = true
            }
        }
    }

    users, err := userRepo.LoadAll()
    if err != nil {
        return nil, fmt.Errorf("load users: %w", err)
    }
    for _, u := range users {
        key := model.Key(u.Username)
        if _, dup := s.users[key]; dup {
            log.Warn("duplicate user record ignored", zap.String("username", u.Username))
            continue
        }
        s.users[key] = u
    }

    loaded, err := resRepo.LoadAll()
    if err != nil {
        return nil, fmt.Errorf("load reservations: %w", err)
    }
    dropped := 0
    for _, res := range loaded {
        if !s.windowFree(res.Category, res.RoomIndex, res.StartDay, res.Nights) {
            dropped++
            log.Warn("conflicting reservation record dropped on replay",
                zap.String("id", res.ID), zap.String("room", res.RoomID()))
            continue
        }
        s.markWindow(res.Category, res.RoomIndex, res.StartDay, res.Nights, false)
        s.ledger = append(s.ledger, res)
    }
    log.Info("store loaded",
        zap.Int("users", len(s.users)),
        zap.Int("reservations", len(s.ledger)),
        zap.Int("dropped_records", dropped))
    return s, nil
}

// Register creates a new account and persists it. It fails with
// ErrUserExists when the username is already taken in any letter case.
func (s *Store) Register(username, password string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    key := model.Key(username)
    if _, exists := s.users[key]; exists {
        return ErrUserExists
    }
    u := model.User{Username: username, Password: password}
    s.users[key] = u
    if err := s.userRepo.Append(u); err != nil {
        s.log.Error("persist user failed, account kept in memory",
            zap.String("username", username), zap.Error(err))
    }
    return nil
}

// Login checks a username/password pair. Usernames compare
// case-insensitively; passwords compare exactly and in plaintext.
func (s *Store) Login(username, password string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    u, ok := s.users[model.Key(username)]
    if !ok {
        return ErrNoSuchUser
    }
    if u.Password != password {
        return ErrBadCredentials
    }
    return nil
}

// UserExists reports whether the username is registered (any case).
func (s *Store) UserExists(username string) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    _, ok := s.users[model.Key(username)]
    return ok
}

// ListAvailable returns, in fixed index order, the ids of every room in
// the category whose entire requested window is free. A window outside
// the seven-day cycle yields ErrBadWindow; bookings never wrap past the
// last cycle day.
func (s *Store) ListAvailable(cat model.Category, startDay, nights int) ([]string, error) {
    if !cat.Valid() {
        return nil, ErrNoSuchRoom
    }
    if !model.ValidWindow(startDay, nights) {
        return nil, ErrBadWindow
    }

    s.mu.Lock()
    defer s.mu.Unlock()

    ids := make([]string, 0, model.RoomsPerCategory)
    for room := 1; room <= model.RoomsPerCategory; room++ {
        if s.windowFree(cat, room, startDay, nights) {
            ids = append(ids, model.RoomID(cat, room))
        }
    }
    return ids, nil
}

// Reserve atomically checks that every day of the window is free and, if
// so, marks the window occupied, records the reservation in the ledger
// and appends it to the reservations file. The check and the marking
// happen under one lock acquisition: of two racing reserves for the same
// room-night exactly one succeeds and the other gets ErrNoAvail. No
// partial mutation happens on any failure path.
func (s *Store) Reserve(username string, cat model.Category, roomID string, startDay, nights int) (model.Reservation, error) {
    roomIndex, ok := model.ParseRoomID(cat, roomID)
    if !ok {
        return model.Reservation{}, ErrNoSuchRoom
    }
    if !model.ValidWindow(startDay, nights) {
        return model.Reservation{}, ErrBadWindow
    }

    s.mu.Lock()
    defer s.mu.Unlock()

    if !s.windowFree(cat, roomIndex, startDay, nights) {
        return model.Reservation{}, ErrNoAvail
    }
    res := model.Reservation{
        ID:        uuid.NewString(),
        Username:  username,
        Category:  cat,
        RoomIndex: roomIndex,
        StartDay:  startDay,
        Nights:    nights,
    }
    s.markWindow(cat, roomIndex, startDay, nights, false)
    s.ledger = append(s.ledger, res)
    if err := s.resRepo.Append(res); err != nil {
        s.log.Error("persist reservation failed, booking kept in memory",
            zap.String("id", res.ID), zap.Error(err))
    }
    return res, nil
}

// ReservationsFor returns the user's active reservations in the order
// they were created.
func (s *Store) ReservationsFor(username string) []model.Reservation {
    s.mu.Lock()
    defer s.mu.Unlock()

    key := model.Key(username)
    var out []model.Reservation
    for _, res := range s.ledger {
        if model.Key(res.Username) == key {
            out = append(out, res)
        }
    }
    return out
}

// Cancel removes the user's reservation with the given id, frees its
// days on the grid and rewrites the reservations file from the remaining
// ledger. It fails with ErrNoSuchReservation when the id is unknown,
// belongs to someone else, or was already canceled.
func (s *Store) Cancel(username, id string) (model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    key := model.Key(username)
    for i, res := range s.ledger {
        if res.ID != id || model.Key(res.Username) != key {
            continue
        }
        s.markWindow(res.Category, res.RoomIndex, res.StartDay, res.Nights, true)
        s.ledger = append(s.ledger[:i], s.ledger[i+1:]...)
        if err := s.resRepo.RewriteAll(s.ledger); err != nil {
            s.log.Error("rewrite reservations file failed, cancellation kept in memory",
                zap.String("id", id), zap.Error(err))
        }
        return res, nil
    }
    return model.Reservation{}, ErrNoSuchReservation
}

// Stats is a consistent snapshot of the store for the ops surface.
type Stats struct {
    Users              int            `json:"users"`
    ActiveReservations int            `json:"active_reservations"`
    FreeRoomNights     map[string]int `json:"free_room_nights"`
}

// Snapshot returns counters for the ops endpoints, taken under the same
// lock as every mutation so they are never torn.
func (s *Store) Snapshot() Stats {
    s.mu.Lock()
    defer s.mu.Unlock()

    st := Stats{
        Users:              len(s.users),
        ActiveReservations: len(s.ledger),
        FreeRoomNights:     make(map[string]int, model.NumCategories),
    }
    for c := 0; c < model.NumCategories; c++ {
        free := 0
        for r := range s.grid[c] {
            for d := range s.grid[c][r] {
                if s.grid[c][r][d] {
                    free++
                }
            }
        }
        st.FreeRoomNights[model.Category(c).String()] = free
    }
    return st
}

// windowFree reports whether every day of the window is free. Callers
// hold s.mu, except New during single-threaded startup.
func (s *Store) windowFree(cat model.Category, roomIndex, startDay, nights int) bool {
    for d := startDay; d < startDay+nights; d++ {
        if !s.grid[cat][roomIndex-1][d-1] {
            return false
        }
    }
    return true
}

// markWindow sets every day of the window to the given availability.
func (s *Store) markWindow(cat model.Category, roomIndex, startDay, nights int, free bool) {
    for d := startDay; d < startDay+nights; d++ {
        s.grid[cat][roomIndex-1][d-1] = free
    }
}
