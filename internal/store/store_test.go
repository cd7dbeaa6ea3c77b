package store

import (
    "errors"
    "path/filepath"
    "sync"
    "testing"

    "go.uber.org/zap"

    "github.com/sahararesort/reservation/internal/model"
    "github.com/sahararesort/reservation/internal/repository"
)

// newTestStore builds a store over flat files in dir. Passing the same
// dir twice simulates a restart against the same persisted state.
func newTestStore(t *testing.T, dir string) *Store {
    t.Helper()
    s, err := New(
        repository.NewUserRepo(filepath.Join(dir, "users.txt")),
        repository.NewReservationRepo(filepath.Join(dir, "reservations.txt")),
        zap.NewNop(),
    )
    if err != nil {
        t.Fatalf("New store: %v", err)
    }
    return s
}

func TestRegisterDuplicateCaseInsensitive(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    if err := s.Register("Alice", "pw1"); err != nil {
        t.Fatalf("first register: %v", err)
    }
    if err := s.Register("alice", "other"); !errors.Is(err, ErrUserExists) {
        t.Fatalf("second register: got %v, want ErrUserExists", err)
    }
    if err := s.Register("ALICE", "other"); !errors.Is(err, ErrUserExists) {
        t.Fatalf("third register: got %v, want ErrUserExists", err)
    }
    if got := s.Snapshot().Users; got != 1 {
        t.Errorf("credential table grew to %d, want 1", got)
    }
}

func TestLogin(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())
    if err := s.Register("alice", "pw1"); err != nil {
        t.Fatal(err)
    }

    tests := []struct {
        name     string
        username string
        password string
        want     error
    }{
        {"exact match", "alice", "pw1", nil},
        {"case-insensitive username", "ALICE", "pw1", nil},
        {"wrong password", "alice", "pw2", ErrBadCredentials},
        {"password is case-sensitive", "alice", "PW1", ErrBadCredentials},
        {"unknown user", "mallory", "pw1", ErrNoSuchUser},
    }
    for _, test := range tests {
        t.Run(test.name, func(t *testing.T) {
            if err := s.Login(test.username, test.password); !errors.Is(err, test.want) {
                t.Errorf("Login(%q, %q) = %v, want %v", test.username, test.password, err, test.want)
            }
        })
    }
}

func TestListAvailableWindowPolicy(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    // Fits exactly: days 6 and 7.
    rooms, err := s.ListAvailable(model.CategoryStandard, 6, 2)
    if err != nil {
        t.Fatalf("ListAvailable(6, 2): %v", err)
    }
    if len(rooms) != model.RoomsPerCategory {
        t.Errorf("got %d rooms, want %d", len(rooms), model.RoomsPerCategory)
    }

    // Would need day 8: rejected, never wrapped around to day 1.
    if _, err := s.ListAvailable(model.CategoryStandard, 6, 3); !errors.Is(err, ErrBadWindow) {
        t.Errorf("ListAvailable(6, 3) = %v, want ErrBadWindow", err)
    }
}

func TestListAvailableFixedOrder(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    rooms, err := s.ListAvailable(model.CategoryPremium, 1, 7)
    if err != nil {
        t.Fatal(err)
    }
    want := []string{"P1", "P2", "P3", "P4", "P5"}
    if len(rooms) != len(want) {
        t.Fatalf("got %v, want %v", rooms, want)
    }
    for i := range want {
        if rooms[i] != want[i] {
            t.Fatalf("got %v, want fixed index order %v", rooms, want)
        }
    }
}

func TestReserveAndCancelScenario(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())
    if err := s.Register("alice", "pw1"); err != nil {
        t.Fatal(err)
    }

    rooms, err := s.ListAvailable(model.CategoryStandard, 1, 2)
    if err != nil || len(rooms) != 5 {
        t.Fatalf("initial availability = %v, %v; want all 5 standard rooms", rooms, err)
    }

    res, err := s.Reserve("alice", model.CategoryStandard, "S1", 1, 2)
    if err != nil {
        t.Fatalf("Reserve: %v", err)
    }
    if res.ID == "" {
        t.Fatal("Reserve returned an empty id")
    }

    rooms, err = s.ListAvailable(model.CategoryStandard, 1, 2)
    if err != nil {
        t.Fatal(err)
    }
    for _, id := range rooms {
        if id == "S1" {
            t.Fatalf("S1 still listed available after booking: %v", rooms)
        }
    }
    if len(rooms) != 4 {
        t.Errorf("got %d rooms, want 4", len(rooms))
    }

    ledger := s.ReservationsFor("alice")
    if len(ledger) != 1 || ledger[0].ID != res.ID {
        t.Fatalf("ReservationsFor = %v, want the single booking %s", ledger, res.ID)
    }

    if _, err := s.Cancel("alice", res.ID); err != nil {
        t.Fatalf("Cancel: %v", err)
    }
    rooms, err = s.ListAvailable(model.CategoryStandard, 1, 2)
    if err != nil {
        t.Fatal(err)
    }
    if len(rooms) != 5 {
        t.Errorf("after cancel got %v, want all 5 rooms back", rooms)
    }
    if left := s.ReservationsFor("alice"); len(left) != 0 {
        t.Errorf("canceled reservation still listed: %v", left)
    }
}

func TestReserveOverlapFails(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    if _, err := s.Reserve("alice", model.CategorySuite, "U2", 2, 3); err != nil {
        t.Fatal(err)
    }
    tests := []struct {
        name             string
        startDay, nights int
    }{
        {"identical window", 2, 3},
        {"overlaps head", 1, 2},
        {"overlaps tail", 4, 2},
        {"covers whole window", 1, 7},
        {"single shared day", 3, 1},
    }
    for _, test := range tests {
        t.Run(test.name, func(t *testing.T) {
            if _, err := s.Reserve("bob", model.CategorySuite, "U2", test.startDay, test.nights); !errors.Is(err, ErrNoAvail) {
                t.Errorf("Reserve(U2, %d, %d) = %v, want ErrNoAvail", test.startDay, test.nights, err)
            }
        })
    }

    // Adjacent windows on the same room are fine.
    if _, err := s.Reserve("bob", model.CategorySuite, "U2", 5, 2); err != nil {
        t.Errorf("adjacent window rejected: %v", err)
    }
    // Same window on a different room is fine.
    if _, err := s.Reserve("bob", model.CategorySuite, "U3", 2, 3); err != nil {
        t.Errorf("same window on free room rejected: %v", err)
    }
}

func TestReserveValidation(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    tests := []struct {
        name             string
        cat              model.Category
        roomID           string
        startDay, nights int
        want             error
    }{
        {"room of another category", model.CategoryStandard, "P1", 1, 1, ErrNoSuchRoom},
        {"index out of range", model.CategoryStandard, "S6", 1, 1, ErrNoSuchRoom},
        {"nonsense id", model.CategoryStandard, "banana", 1, 1, ErrNoSuchRoom},
        {"window past cycle end", model.CategoryStandard, "S1", 6, 3, ErrBadWindow},
        {"zero nights", model.CategoryStandard, "S1", 1, 0, ErrBadWindow},
        {"day zero", model.CategoryStandard, "S1", 0, 2, ErrBadWindow},
    }
    for _, test := range tests {
        t.Run(test.name, func(t *testing.T) {
            if _, err := s.Reserve("alice", test.cat, test.roomID, test.startDay, test.nights); !errors.Is(err, test.want) {
                t.Errorf("Reserve = %v, want %v", err, test.want)
            }
        })
    }
    // Nothing above may have touched the grid.
    rooms, err := s.ListAvailable(model.CategoryStandard, 1, 7)
    if err != nil || len(rooms) != 5 {
        t.Fatalf("grid mutated by failed reserves: %v, %v", rooms, err)
    }
}

func TestConcurrentReserveExactlyOneWins(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    const racers = 32
    var wg sync.WaitGroup
    errs := make([]error, racers)
    start := make(chan struct{})
    for i := 0; i < racers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            <-start
            _, errs[i] = s.Reserve("alice", model.CategoryPremium, "P3", 2, 4)
        }(i)
    }
    close(start)
    wg.Wait()

    wins := 0
    for _, err := range errs {
        switch {
        case err == nil:
            wins++
        case errors.Is(err, ErrNoAvail):
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    if wins != 1 {
        t.Fatalf("%d reserves won the race, want exactly 1", wins)
    }
    if got := len(s.ReservationsFor("alice")); got != 1 {
        t.Errorf("ledger holds %d reservations, want 1", got)
    }
}

func TestNoDoubleBookingUnderMixedLoad(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    // Many goroutines fight over every standard room for day 1..2; each
    // winner immediately cancels, freeing the window for the next winner.
    const workers = 8
    const rounds = 25
    var wg sync.WaitGroup
    for w := 0; w < workers; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for i := 0; i < rounds; i++ {
                for room := 1; room <= model.RoomsPerCategory; room++ {
                    id := model.RoomID(model.CategoryStandard, room)
                    res, err := s.Reserve("alice", model.CategoryStandard, id, 1, 2)
                    if errors.Is(err, ErrNoAvail) {
                        continue
                    }
                    if err != nil {
                        t.Errorf("Reserve(%s): %v", id, err)
                        return
                    }
                    if _, err := s.Cancel("alice", res.ID); err != nil {
                        t.Errorf("Cancel(%s): %v", res.ID, err)
                        return
                    }
                }
            }
        }()
    }
    wg.Wait()

    // All churn canceled itself out: the grid must be fully free again.
    rooms, err := s.ListAvailable(model.CategoryStandard, 1, 7)
    if err != nil || len(rooms) != model.RoomsPerCategory {
        t.Fatalf("grid inconsistent after churn: %v, %v", rooms, err)
    }
    if left := s.ReservationsFor("alice"); len(left) != 0 {
        t.Errorf("ledger not empty after churn: %v", left)
    }
}

func TestPersistenceRoundTrip(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()

    s1 := newTestStore(t, dir)
    if err := s1.Register("alice", "pw1"); err != nil {
        t.Fatal(err)
    }
    res, err := s1.Reserve("alice", model.CategoryStandard, "S2", 3, 2)
    if err != nil {
        t.Fatal(err)
    }

    // Restart: a fresh store over the same files replays the ledger.
    s2 := newTestStore(t, dir)
    if err := s2.Login("alice", "pw1"); err != nil {
        t.Errorf("user lost across restart: %v", err)
    }
    rooms, err := s2.ListAvailable(model.CategoryStandard, 3, 2)
    if err != nil {
        t.Fatal(err)
    }
    for _, id := range rooms {
        if id == "S2" {
            t.Fatalf("S2 available after restart despite persisted booking: %v", rooms)
        }
    }
    ledger := s2.ReservationsFor("alice")
    if len(ledger) != 1 || ledger[0] != res {
        t.Fatalf("ledger after restart = %v, want [%v]", ledger, res)
    }

    // Cancel on the restarted store, then restart again: gone for good.
    if _, err := s2.Cancel("alice", res.ID); err != nil {
        t.Fatal(err)
    }
    s3 := newTestStore(t, dir)
    if left := s3.ReservationsFor("alice"); len(left) != 0 {
        t.Errorf("canceled reservation resurrected by reload: %v", left)
    }
    rooms, err = s3.ListAvailable(model.CategoryStandard, 3, 2)
    if err != nil || len(rooms) != 5 {
        t.Errorf("availability after cancel+reload = %v, %v; want all 5", rooms, err)
    }
}

func TestCancelFailures(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())
    res, err := s.Reserve("alice", model.CategoryPremium, "P1", 1, 1)
    if err != nil {
        t.Fatal(err)
    }

    if _, err := s.Cancel("alice", "no-such-id"); !errors.Is(err, ErrNoSuchReservation) {
        t.Errorf("unknown id: got %v", err)
    }
    if _, err := s.Cancel("bob", res.ID); !errors.Is(err, ErrNoSuchReservation) {
        t.Errorf("wrong owner: got %v", err)
    }
    if _, err := s.Cancel("alice", res.ID); err != nil {
        t.Fatalf("rightful cancel: %v", err)
    }
    if _, err := s.Cancel("alice", res.ID); !errors.Is(err, ErrNoSuchReservation) {
        t.Errorf("double cancel: got %v", err)
    }
}

func TestReservationIDsUnique(t *testing.T) {
    t.Parallel()
    s := newTestStore(t, t.TempDir())

    seen := make(map[string]bool)
    for room := 1; room <= model.RoomsPerCategory; room++ {
        for day := 1; day <= model.CycleDays; day++ {
            res, err := s.Reserve("alice", model.CategorySuite, model.RoomID(model.CategorySuite, room), day, 1)
            if err != nil {
                t.Fatal(err)
            }
            if seen[res.ID] {
                t.Fatalf("duplicate reservation id %s", res.ID)
            }
            seen[res.ID] = true
        }
    }
}
