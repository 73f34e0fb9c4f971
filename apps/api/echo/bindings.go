package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/janisrealty/janis/core"
)

const orderingParam = "ordering"

// queryOrdering reads the "ordering" query parameter, e.g. "-price,created_at".
func queryOrdering(ctx echo.Context) []core.DBOrdering {
	return core.ParseOrderings(ctx.QueryParam(orderingParam))
}

// pathID parses the named path parameter as an ID. Malformed IDs are reported as not found.
func pathID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func queryInt(ctx echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(ctx.QueryParam(name)); err == nil {
		return n
	}
	return def
}

func queryBool(ctx echo.Context, name string) bool {
	b, _ := strconv.ParseBool(ctx.QueryParam(name))
	return b
}

func formInt64(ctx echo.Context, name string) *int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(ctx.FormValue(name)), 10, 64); err == nil {
		return &n
	}
	return nil
}
