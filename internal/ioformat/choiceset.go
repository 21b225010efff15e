package ioformat

import (
	"io"
	"strconv"
	"strings"

	"github.com/scaper-sim/scaper/internal/model"
)

// choiceColumns is the columnar layout for a serialized model.Choiceset
// (§6): one row per (agent, alternative, trip) triple, the observed
// alternative always at AltIndex 0.
var choiceColumns = []string{"IndID", "SampledZones", "AltIndex", "Correction", "LatentClass", "Activity", "Mode", "Origin", "Destination", "DepartureTime"}

// WriteChoicesets serializes choicesets to the §6 columnar layout, one
// row per trip within each alternative (an alternative with no trips --
// an all-day-Home path -- still gets a single row carrying its
// correction, with the trip columns left blank).
func WriteChoicesets(w io.Writer, sets []model.Choiceset) error {
	writer := newWriter(w)
	if err := writer.Write(choiceColumns); err != nil {
		return err
	}
	for _, cs := range sets {
		zones := formatSampledZones(cs.SampledZones)
		for altIdx, alt := range cs.Alternatives {
			if len(alt.Trips) == 0 {
				row := []string{
					strconv.FormatInt(cs.Agent.ID, 10),
					zones,
					strconv.Itoa(altIdx),
					formatFloat(alt.Correction),
					"", "", "", "", "", "",
				}
				if err := writer.Write(row); err != nil {
					return err
				}
				continue
			}
			for _, trip := range alt.Trips {
				row := []string{
					strconv.FormatInt(cs.Agent.ID, 10),
					zones,
					strconv.Itoa(altIdx),
					formatFloat(alt.Correction),
					strconv.Itoa(trip.LatentClass),
					trip.Activity.String(),
					trip.Mode.String(),
					strconv.Itoa(trip.OriginZone),
					strconv.Itoa(trip.DestZone),
					formatClockMinutes(trip.DepartTime),
				}
				if err := writer.Write(row); err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadChoicesets reverses WriteChoicesets, reassembling each agent's
// alternatives from their constituent trip rows in file order. Only
// Agent.ID is populated on the returned Choicesets; callers that need
// the full agent record join against LoadAgents by ID.
func LoadChoicesets(r io.Reader) ([]model.Choiceset, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	idx := headerIndex(header)

	order := []int64{}
	byAgent := map[int64]*model.Choiceset{}
	altByAgent := map[int64]map[int]int{} // agent -> altIndex -> position in Alternatives

	for _, row := range rows {
		agentID, err := readIntColumn(row, idx, "IndID")
		if err != nil {
			return nil, err
		}
		id := int64(agentID)
		cs, ok := byAgent[id]
		if !ok {
			zones, err := parseSampledZones(row[idx["SampledZones"]])
			if err != nil {
				return nil, err
			}
			cs = &model.Choiceset{Agent: model.Agent{ID: id}, SampledZones: zones}
			byAgent[id] = cs
			altByAgent[id] = map[int]int{}
			order = append(order, id)
		}

		altIdx, err := readIntColumn(row, idx, "AltIndex")
		if err != nil {
			return nil, err
		}
		correction, err := readFloatColumn(row, idx, "Correction")
		if err != nil {
			return nil, err
		}

		pos, ok := altByAgent[id][altIdx]
		if !ok {
			cs.Alternatives = append(cs.Alternatives, model.Alternative{Correction: correction})
			pos = len(cs.Alternatives) - 1
			altByAgent[id][altIdx] = pos
		}

		if row[idx["Activity"]] == "" {
			continue
		}
		trip, err := parseChoiceTripRow(row, idx, id)
		if err != nil {
			return nil, err
		}
		cs.Alternatives[pos].Trips = append(cs.Alternatives[pos].Trips, trip)
	}

	sets := make([]model.Choiceset, len(order))
	for i, id := range order {
		sets[i] = *byAgent[id]
	}
	return sets, nil
}

func parseChoiceTripRow(row []string, idx map[string]int, agentID int64) (model.Trip, error) {
	var t model.Trip
	t.AgentID = agentID

	if i, ok := idx["LatentClass"]; ok && row[i] != "" {
		class, err := strconv.Atoi(row[i])
		if err != nil {
			return t, err
		}
		t.LatentClass = class
	}
	activity, err := parseActivity(row[idx["Activity"]])
	if err != nil {
		return t, err
	}
	mode, err := parseMode(row[idx["Mode"]])
	if err != nil {
		return t, err
	}
	origin, err := readIntColumn(row, idx, "Origin")
	if err != nil {
		return t, err
	}
	dest, err := readIntColumn(row, idx, "Destination")
	if err != nil {
		return t, err
	}
	depart, err := parseClockMinutes(row[idx["DepartureTime"]])
	if err != nil {
		return t, err
	}

	t.Activity = activity
	t.Mode = mode
	t.OriginZone = origin
	t.DestZone = dest
	t.DepartTime = depart
	return t, nil
}

// formatSampledZones packs a sampled-zone index array into a single
// "|"-delimited field so the columnar layout stays one row per trip.
func formatSampledZones(zones []int) string {
	parts := make([]string, len(zones))
	for i, z := range zones {
		parts[i] = strconv.Itoa(z)
	}
	return strings.Join(parts, "|")
}

func parseSampledZones(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "|")
	zones := make([]int, len(parts))
	for i, p := range parts {
		z, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		zones[i] = z
	}
	return zones, nil
}
