package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tesoreria/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// parsePeriod reads kind, year and number query parameters into a
// Period. Missing kind defaults to monthly on the current month so the
// dashboard works with a bare GET.
func parsePeriod(query url.Values, now time.Time) (core.Period, error) {
	kind := core.Cycle(strings.TrimSpace(query.Get("kind")))
	if kind == "" {
		kind = core.Monthly
	}

	period := core.Period{Kind: kind, Year: now.Year()}
	switch kind {
	case core.Monthly:
		period.Number = int(now.Month())
	case core.Quarterly:
		period.Number = (int(now.Month())-1)/3 + 1
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, core.Invalid("year", fmt.Sprintf("%q is not a number", v))
		}
		period.Year = y
	}
	if v := strings.TrimSpace(query.Get("number")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, core.Invalid("number", fmt.Sprintf("%q is not a number", v))
		}
		period.Number = n
	}
	if kind == core.Yearly {
		period.Number = 0
	}

	if err := period.Validate(); err != nil {
		return core.Period{}, err
	}
	return period, nil
}

// parseYear reads the year query parameter, defaulting to the current
// year.
func parseYear(query url.Values, now time.Time) (int, error) {
	year := now.Year()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, core.Invalid("year", fmt.Sprintf("%q is not a number", v))
		}
		year = y
	}
	if year < 2000 || year > 2100 {
		return 0, core.Invalid("year", fmt.Sprintf("%d outside [2000, 2100]", year))
	}
	return year, nil
}

// decodeBody decodes a JSON request body into v, rejecting unknown
// fields and oversized payloads.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.Invalid("body", err.Error())
	}
	return nil
}

// pathID reads the {id} path segment as an int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid("id", fmt.Sprintf("%q is not a valid id", raw))
	}
	return id, nil
}

// actor identifies who performed the request, from the reverse proxy's
// auth header. Falls back to "anonymous" in local runs without a proxy.
func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get("X-Auth-User")); a != "" {
		return a
	}
	return "anonymous"
}
