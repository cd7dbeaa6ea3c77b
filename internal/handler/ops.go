package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/sahararesort/reservation/internal/model"
    "github.com/sahararesort/reservation/internal/store"
)

// Ops serves the read-only HTTP sidecar: liveness plus JSON views of the
// availability grid. Every read goes through the store's lock, so the
// responses are consistent snapshots even while the TCP side is booking.
type Ops struct {
    Store *store.Store
}

// NewOps constructs the ops handler over the given store.
func NewOps(st *store.Store) *Ops { return &Ops{Store: st} }

// Health is a plain liveness probe for load balancers and monitoring.
func (h *Ops) Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Availability handles GET /v1/availability?category=&start_day=&nights=
// and returns the room ids of the category that are free for the whole
// window. start_day and nights default to a one-night stay on day 1.
func (h *Ops) Availability(c echo.Context) error {
    cat, ok := model.ParseCategory(c.QueryParam("category"))
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
    }
    startDay := queryInt(c, "start_day", 1)
    nights := queryInt(c, "nights", 1)

    rooms, err := h.Store.ListAvailable(cat, startDay, nights)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "window must fit inside days 1..7"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "category":  cat.String(),
        "start_day": startDay,
        "nights":    nights,
        "rooms":     rooms,
    })
}

// Stats handles GET /v1/stats with store-wide counters.
func (h *Ops) Stats(c echo.Context) error {
    return c.JSON(http.StatusOK, h.Store.Snapshot())
}

func queryInt(c echo.Context, name string, fallback int) int {
    v := c.QueryParam(name)
    if v == "" {
        return fallback
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return fallback
    }
    return n
}
