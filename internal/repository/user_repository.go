// Package repository implements the flat-file persistence layer. Each
// repository is bound to one line-oriented file: records are comma-separated
// fields, one record per line, loaded fully at startup. The repositories do
// no locking of their own; the store serializes every call under its lock.
package repository

import (
    "bufio"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "strings"

    "github.com/sahararesort/reservation/internal/model"
)

// UserRepo persists registered accounts to a users file. The file is
// append-only: accounts are never mutated or removed, so a rewrite path
// is not needed.
type UserRepo struct {
    path string
}

// NewUserRepo returns a UserRepo bound to the given file path. The file
// does not have to exist yet; a missing file reads as zero users.
func NewUserRepo(path string) *UserRepo { return &UserRepo{path: path} }

// LoadAll reads every account record from the file. Records are
// "username,password" lines; malformed lines are skipped rather than
// failing the whole load, so one corrupt line cannot take the server down.
func (r *UserRepo) LoadAll() ([]model.User, error) {
    f, err := os.Open(r.path)
    if err != nil {
        if errors.Is(err, fs.ErrNotExist) {
            return nil, nil // first run, nothing persisted yet
        }
        return nil, fmt.Errorf("open users file: %w", err)
    }
    defer f.Close()

    var users []model.User
    sc := bufio.NewScanner(f)
    for sc.Scan() {
        line := strings.TrimSpace(sc.Text())
        if line == "" {
            continue
        }
        parts := strings.Split(line, ",")
        if len(parts) != 2 || parts[0] == "" {
            continue
        }
        users = append(users, model.User{Username: parts[0], Password: parts[1]})
    }
    if err := sc.Err(); err != nil {
        return nil, fmt.Errorf("read users file: %w", err)
    }
    return users, nil
}

// Append writes one new account record to the end of the file, creating
// the file on first use.
func (r *UserRepo) Append(u model.User) error {
    f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open users file: %w", err)
    }
    defer f.Close()
    if _, err := fmt.Fprintf(f, "%s,%s\n", u.Username, u.Password); err != nil {
        return fmt.Errorf("append user: %w", err)
    }
    return nil
}
