// Package format enumerates the supported sleep-diary export formats
// behind one handler interface. The set of handlers is a static,
// explicit list tried in priority order; there is no registration
// side-table.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

// Handler parses one vendor export layout into the canonical record
// list and serializes the list back out.
type Handler interface {
	Name() string
	// Detect reports whether data plausibly belongs to this format.
	// It must be cheap; Parse remains free to fail on closer reading.
	Detect(data []byte) bool
	Parse(data []byte) (*diary.Diary, error)
	Serialize(d *diary.Diary) ([]byte, error)
}

// ErrUnknownFormat is returned by Resolve when no handler recognises
// the input.
var ErrUnknownFormat = errors.New("no handler recognises the input")

// Handlers returns the supported formats in resolution priority order.
// More specific layouts come first so the permissive standard JSON
// handler cannot shadow them.
func Handlers() []Handler {
	return []Handler{
		SleepAsAndroid{},
		Sleepmeter{},
		Standard{},
	}
}

// ByName returns the named handler.
func ByName(name string) (Handler, bool) {
	for _, h := range Handlers() {
		if strings.EqualFold(h.Name(), name) {
			return h, true
		}
	}
	return nil, false
}

// Resolve parses data with the first handler that both detects and
// parses it. When every detecting handler fails, the combined errors
// are reported as the best-effort diagnosis.
func Resolve(data []byte) (*diary.Diary, Handler, error) {
	var attempts []error
	for _, h := range Handlers() {
		if !h.Detect(data) {
			continue
		}
		d, err := h.Parse(data)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", h.Name(), err))
			continue
		}
		return d, h, nil
	}
	if len(attempts) > 0 {
		return nil, nil, fmt.Errorf("resolving format: %w", errors.Join(attempts...))
	}
	return nil, nil, ErrUnknownFormat
}
