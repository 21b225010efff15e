package ioformat

import (
	"io"

	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
)

// LoadAgents reads an agents CSV, one row per agent (§6). Required
// columns: id, age, sex, income, has_kids, home_zone, has_work,
// work_zone, owns_vehicle, has_transit_card, weight,
// mandated_work_duration. work_zone is ignored (and may be blank) when
// has_work is false.
func LoadAgents(r io.Reader) ([]model.Agent, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	idx := headerIndex(header)

	agents := make([]model.Agent, len(rows))
	for i, row := range rows {
		a, err := parseAgentRow(row, idx)
		if err != nil {
			return nil, scaperr.Wrap(scaperr.InputFormat, err, "agent row %d", i)
		}
		agents[i] = a
	}
	return agents, nil
}

func parseAgentRow(row []string, idx map[string]int) (model.Agent, error) {
	var a model.Agent

	id, err := readIntColumn(row, idx, "id")
	if err != nil {
		return a, err
	}
	age, err := readIntColumn(row, idx, "age")
	if err != nil {
		return a, err
	}
	sex, err := column(row, idx, "sex")
	if err != nil {
		return a, err
	}
	income, err := readFloatColumn(row, idx, "income")
	if err != nil {
		return a, err
	}
	hasKids, err := readBoolColumn(row, idx, "has_kids")
	if err != nil {
		return a, err
	}
	homeZone, err := readIntColumn(row, idx, "home_zone")
	if err != nil {
		return a, err
	}
	hasWork, err := readBoolColumn(row, idx, "has_work")
	if err != nil {
		return a, err
	}
	ownsVehicle, err := readBoolColumn(row, idx, "owns_vehicle")
	if err != nil {
		return a, err
	}
	hasTransitCard, err := readBoolColumn(row, idx, "has_transit_card")
	if err != nil {
		return a, err
	}
	weight, err := readFloatColumn(row, idx, "weight")
	if err != nil {
		return a, err
	}
	mandatedWorkDuration, err := readIntColumn(row, idx, "mandated_work_duration")
	if err != nil {
		return a, err
	}

	workZone := 0
	if hasWork {
		workZone, err = readIntColumn(row, idx, "work_zone")
		if err != nil {
			return a, err
		}
	}

	return model.Agent{
		ID:                   int64(id),
		Age:                  age,
		Sex:                  sex,
		Income:               income,
		HasKids:              hasKids,
		HomeZone:             homeZone,
		WorkZone:             workZone,
		HasWork:              hasWork,
		OwnsVehicle:          ownsVehicle,
		HasTransitCard:       hasTransitCard,
		Weight:               weight,
		MandatedWorkDuration: mandatedWorkDuration,
	}, nil
}

func readBoolColumn(row []string, idx map[string]int, name string) (bool, error) {
	s, err := column(row, idx, name)
	if err != nil {
		return false, err
	}
	return parseCSVBool(s), nil
}

// parseCSVBool accepts the same permissive spellings as
// config.ParseBool, duplicated here to keep ioformat's column parsing
// self-contained (config.ParseBool is specifically the "estimate"
// column's parser, a different file's format).
func parseCSVBool(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "y", "yes":
		return true
	default:
		if v, err := parseFloat(s); err == nil {
			return v != 0
		}
		return false
	}
}
