package repository

import (
    "bufio"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "strconv"
    "strings"

    "github.com/sahararesort/reservation/internal/model"
)

// ReservationRepo persists the reservation ledger. Creation appends one
// record; cancellation rewrites the whole file from the in-memory ledger
// (no in-place edits). The record format is
// "id,username,category,roomIndex,startDay,nights".
type ReservationRepo struct {
    path string
}

// NewReservationRepo returns a ReservationRepo bound to the given file path.
func NewReservationRepo(path string) *ReservationRepo { return &ReservationRepo{path: path} }

// LoadAll reads every reservation record in file order. Malformed lines
// are skipped; the caller replays the surviving records onto the
// availability grid and decides what to do with conflicting ones.
func (r *ReservationRepo) LoadAll() ([]model.Reservation, error) {
    f, err := os.Open(r.path)
    if err != nil {
        if errors.Is(err, fs.ErrNotExist) {
            return nil, nil
        }
        return nil, fmt.Errorf("open reservations file: %w", err)
    }
    defer f.Close()

    var out []model.Reservation
    sc := bufio.NewScanner(f)
    for sc.Scan() {
        res, ok := parseRecord(sc.Text())
        if !ok {
            continue
        }
        out = append(out, res)
    }
    if err := sc.Err(); err != nil {
        return nil, fmt.Errorf("read reservations file: %w", err)
    }
    return out, nil
}

// Append writes one new reservation record to the end of the file.
func (r *ReservationRepo) Append(res model.Reservation) error {
    f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open reservations file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(formatRecord(res)); err != nil {
        return fmt.Errorf("append reservation: %w", err)
    }
    return nil
}

// RewriteAll replaces the file contents with the given ledger. The new
// contents are written to a temporary sibling first and renamed into
// place, so a crash mid-write leaves either the old file or the new one,
// never a truncated mix.
func (r *ReservationRepo) RewriteAll(ledger []model.Reservation) error {
    tmp := r.path + ".tmp"
    f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open temp reservations file: %w", err)
    }
    w := bufio.NewWriter(f)
    for _, res := range ledger {
        if _, err := w.WriteString(formatRecord(res)); err != nil {
            f.Close()
            return fmt.Errorf("write reservation: %w", err)
        }
    }
    if err := w.Flush(); err != nil {
        f.Close()
        return fmt.Errorf("flush reservations file: %w", err)
    }
    if err := f.Close(); err != nil {
        return fmt.Errorf("close reservations file: %w", err)
    }
    if err := os.Rename(tmp, r.path); err != nil {
        return fmt.Errorf("replace reservations file: %w", err)
    }
    return nil
}

func formatRecord(res model.Reservation) string {
    return fmt.Sprintf("%s,%s,%s,%d,%d,%d\n",
        res.ID, res.Username, res.Category, res.RoomIndex, res.StartDay, res.Nights)
}

// parseRecord decodes one line of the reservations file. It validates the
// category name, the room index and the day window so that a hand-edited
// or damaged file cannot inject an out-of-range reservation into the grid.
func parseRecord(line string) (model.Reservation, bool) {
    line = strings.TrimSpace(line)
    if line == "" {
        return model.Reservation{}, false
    }
    parts := strings.Split(line, ",")
    if len(parts) != 6 || parts[0] == "" || parts[1] == "" {
        return model.Reservation{}, false
    }
    cat, ok := model.ParseCategory(parts[2])
    if !ok {
        return model.Reservation{}, false
    }
    roomIndex, err := strconv.Atoi(parts[3])
    if err != nil || roomIndex < 1 || roomIndex > model.RoomsPerCategory {
        return model.Reservation{}, false
    }
    startDay, err := strconv.Atoi(parts[4])
    if err != nil {
        return model.Reservation{}, false
    }
    nights, err := strconv.Atoi(parts[5])
    if err != nil {
        return model.Reservation{}, false
    }
    if !model.ValidWindow(startDay, nights) {
        return model.Reservation{}, false
    }
    return model.Reservation{
        ID:        parts[0],
        Username:  parts[1],
        Category:  cat,
        RoomIndex: roomIndex,
        StartDay:  startDay,
        Nights:    nights,
    }, true
}
