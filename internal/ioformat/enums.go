package ioformat

import (
	"fmt"
	"strconv"

	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
)

// parseMode reverses model.Mode.String() for the Trips file's enum-name
// encoding.
func parseMode(s string) (model.Mode, error) {
	for _, m := range model.AllModes() {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, scaperr.New(scaperr.InputFormat, "unrecognized mode %q", s)
}

// parseActivity reverses model.Activity.String().
func parseActivity(s string) (model.Activity, error) {
	for _, a := range []model.Activity{model.Depart, model.Arrive, model.Home, model.Work, model.Shop, model.Other} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, scaperr.New(scaperr.InputFormat, "unrecognized activity %q", s)
}

// parseClockMinutes parses an "HH:MM" departure time into minutes since
// midnight.
func parseClockMinutes(s string) (float64, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, scaperr.New(scaperr.InputFormat, "malformed HH:MM time %q", s)
	}
	return float64(h*60 + m), nil
}

// formatClockMinutes formats minutes since midnight as "HH:MM",
// truncated to the minute per §6 ("times in the file are truncated to
// the minute; the internal representation is exact real").
func formatClockMinutes(minutes float64) string {
	total := int(minutes)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, scaperr.Wrap(scaperr.InputFormat, err, "parsing float %q", s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, scaperr.Wrap(scaperr.InputFormat, err, "parsing int %q", s)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
