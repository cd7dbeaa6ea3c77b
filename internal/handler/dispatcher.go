// Package handler implements the protocol dispatcher: it turns one
// request line into one response line by parsing the verb and arguments
// and invoking the store.
package handler

import (
    "context"
    "errors"
    "strconv"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/sahararesort/reservation/internal/model"
    "github.com/sahararesort/reservation/internal/queue"
    "github.com/sahararesort/reservation/internal/store"
)

// Dispatcher maps protocol verbs to handlers. It holds no per-connection
// state: the "logged-in user" is a client-side convention and every
// command that needs a user carries the username explicitly, so one
// Dispatcher serves every connection concurrently.
type Dispatcher struct {
    store    *store.Store
    pub      *queue.Publisher
    log      *zap.Logger
    commands map[string]command
}

// command couples a verb's handler with its usage contract. minArgs short
// of the mark yields "ERR usage: <usage>" before the handler runs.
type command struct {
    minArgs int
    usage   string
    run     func(args []string) string
}

// New constructs a Dispatcher over the given store and event publisher.
func New(st *store.Store, pub *queue.Publisher, log *zap.Logger) *Dispatcher {
    d := &Dispatcher{store: st, pub: pub, log: log}
    d.commands = map[string]command{
        "PING":       {0, "PING", d.ping},
        "REGISTER":   {2, "REGISTER username password", d.register},
        "LOGIN":      {2, "LOGIN username password", d.login},
        "LIST_AVAIL": {3, "LIST_AVAIL category startDay nights", d.listAvail},
        "BOOK2":      {5, "BOOK2 username category roomId startDay nights", d.book},
        "MY_RES":     {1, "MY_RES username", d.myReservations},
        "CANCEL":     {2, "CANCEL username reservationId", d.cancel},
    }
    return d
}

// Dispatch handles one request line and returns the response line. The
// second return value is false for blank lines, which get no response at
// all. Dispatch never panics on malformed input; anything unparseable
// turns into an ERR line so the connection survives.
func (d *Dispatcher) Dispatch(line string) (string, bool) {
    fields := strings.Fields(strings.TrimSpace(line))
    if len(fields) == 0 {
        return "", false
    }
    verb := strings.ToUpper(fields[0])
    args := fields[1:]

    cmd, ok := d.commands[verb]
    if !ok {
        return "ERR UNKNOWN_COMMAND", true
    }
    if len(args) < cmd.minArgs {
        return "ERR usage: " + cmd.usage, true
    }
    return cmd.run(args), true
}

func (d *Dispatcher) ping([]string) string { return "OK PONG" }

func (d *Dispatcher) register(args []string) string {
    if err := d.store.Register(args[0], args[1]); err != nil {
        return "ERR USER_EXISTS"
    }
    d.log.Info("user registered", zap.String("username", args[0]))
    return "OK REGISTERED"
}

func (d *Dispatcher) login(args []string) string {
    switch err := d.store.Login(args[0], args[1]); {
    case errors.Is(err, store.ErrNoSuchUser):
        return "ERR NO_SUCH_USER"
    case errors.Is(err, store.ErrBadCredentials):
        return "ERR BAD_CREDENTIALS"
    default:
        return "OK LOGIN"
    }
}

func (d *Dispatcher) listAvail(args []string) string {
    cat, ok := model.ParseCategory(args[0])
    if !ok {
        return "ERR usage: " + d.commands["LIST_AVAIL"].usage
    }
    startDay, err1 := strconv.Atoi(args[1])
    nights, err2 := strconv.Atoi(args[2])
    if err1 != nil || err2 != nil {
        return "ERR usage: " + d.commands["LIST_AVAIL"].usage
    }

    rooms, err := d.store.ListAvailable(cat, startDay, nights)
    if errors.Is(err, store.ErrBadWindow) {
        // A stay that does not fit the seven-day cycle simply has no rooms.
        return "OK ROOMS"
    }
    if err != nil {
        return "ERR usage: " + d.commands["LIST_AVAIL"].usage
    }
    if len(rooms) == 0 {
        return "OK ROOMS"
    }
    return "OK ROOMS " + strings.Join(rooms, ",")
}

func (d *Dispatcher) book(args []string) string {
    username := args[0]
    cat, ok := model.ParseCategory(args[1])
    if !ok {
        return "ERR usage: " + d.commands["BOOK2"].usage
    }
    startDay, err1 := strconv.Atoi(args[3])
    nights, err2 := strconv.Atoi(args[4])
    if err1 != nil || err2 != nil {
        return "ERR usage: " + d.commands["BOOK2"].usage
    }
    // The store does not know about accounts; the protocol enforces that
    // reservations reference a registered user.
    if !d.store.UserExists(username) {
        return "ERR NO_SUCH_USER"
    }

    res, err := d.store.Reserve(username, cat, args[2], startDay, nights)
    if err != nil {
        return "ERR NO_AVAIL"
    }
    d.log.Info("reservation confirmed",
        zap.String("id", res.ID), zap.String("username", username), zap.String("room", res.RoomID()))
    d.publishConfirmed(res)
    return "OK CONFIRMED " + res.ID
}

func (d *Dispatcher) myReservations(args []string) string {
    reservations := d.store.ReservationsFor(args[0])
    if len(reservations) == 0 {
        return "OK RES"
    }
    entries := make([]string, 0, len(reservations))
    for _, res := range reservations {
        entries = append(entries, res.WireEntry())
    }
    return "OK RES " + strings.Join(entries, ",")
}

func (d *Dispatcher) cancel(args []string) string {
    res, err := d.store.Cancel(args[0], args[1])
    if err != nil {
        return "ERR NO_SUCH_RES"
    }
    d.log.Info("reservation canceled",
        zap.String("id", res.ID), zap.String("username", args[0]), zap.String("room", res.RoomID()))
    d.publishCanceled(res)
    return "OK CANCELED"
}

// Event publishing runs on its own goroutine so broker latency never
// delays the response line. Failures are logged inside the publisher and
// otherwise ignored.
func (d *Dispatcher) publishConfirmed(res model.Reservation) {
    if !d.pub.Enabled() {
        return
    }
    ev := queue.ReservationConfirmedEvent{
        ReservationID: res.ID,
        Username:      res.Username,
        Category:      res.Category.String(),
        RoomID:        res.RoomID(),
        StartDay:      res.StartDay,
        Nights:        res.Nights,
        ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = d.pub.ReservationConfirmed(ctx, ev)
    }()
}

func (d *Dispatcher) publishCanceled(res model.Reservation) {
    if !d.pub.Enabled() {
        return
    }
    ev := queue.ReservationCanceledEvent{
        ReservationID: res.ID,
        Username:      res.Username,
        RoomID:        res.RoomID(),
        StartDay:      res.StartDay,
        Nights:        res.Nights,
        CanceledAt:    time.Now().UTC().Format(time.RFC3339),
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = d.pub.ReservationCanceled(ctx, ev)
    }()
}
