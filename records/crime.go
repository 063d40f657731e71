package records

import (
	"fmt"
	"io"
	"strconv"

	"region-index/assign"
)

// Crime is one reported incident from the city's crime datasets.
type Crime struct {
	CaseNumber  string `json:"case_number"`
	Block       string `json:"block"`
	Year        int    `json:"year"`
	Date        string `json:"date"`
	PrimaryType string `json:"primary_type"`
	Description string `json:"description"`
	assign.Location
}

// The homicide dataset has no primary_type column.
const defaultPrimaryType = "HOMICIDE"

var crimeHeaders = []string{"case_number", "latitude", "longitude", "block", "year", "date", "primary_type", "description", "region_id"}

func LoadCrimes(r io.Reader) ([]*Crime, error) {
	return load(r, fromCrimeCSV)
}

func fromCrimeCSV(cols columns, record []string) (*Crime, error) {
	if err := cols.require("case_number", "date"); err != nil {
		return nil, err
	}

	c := &Crime{
		CaseNumber:  cols.get(record, "case_number"),
		Block:       cols.get(record, "block"),
		Date:        cols.get(record, "date"),
		PrimaryType: cols.get(record, "primary_type"),
		Description: cols.get(record, "description"),
	}
	if c.PrimaryType == "" {
		c.PrimaryType = defaultPrimaryType
	}
	c.Longitude = parseCoordinate(cols.get(record, "longitude"))
	c.Latitude = parseCoordinate(cols.get(record, "latitude"))
	c.Region = parseString(cols.get(record, "region_id"))

	year, err := crimeYear(cols.get(record, "year"), c.Date)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", c.CaseNumber, err)
	}
	c.Year = year
	return c, nil
}

// crimeYear prefers an explicit year column and falls back to the leading
// four digits of an ISO date.
func crimeYear(year, date string) (int, error) {
	if year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			return y, nil
		}
	}
	if len(date) < 4 {
		return 0, fmt.Errorf("invalid date %q: cannot derive year", date)
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: cannot derive year", date)
	}
	return y, nil
}

func WriteCrimes(w io.Writer, crimes []*Crime) error {
	return write(w, crimeHeaders, crimes, func(c *Crime) []string {
		return []string{
			c.CaseNumber,
			formatFloat(c.Latitude),
			formatFloat(c.Longitude),
			c.Block,
			strconv.Itoa(c.Year),
			c.Date,
			c.PrimaryType,
			c.Description,
			formatString(c.RegionID()),
		}
	})
}
