/*
Copyright © 2024 the LandMAP authors.
This file is part of LandMAP.

LandMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

LandMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with LandMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package forcing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ReadMetCSV reads daily weather records from a CSV stream with a
// header row and the columns date, rain, snow, tmin and tmax. Dates
// are formatted 2006-01-02, precipitation depths are in millimeters
// and temperatures in °C.
func ReadMetCSV(r io.Reader) ([]MetRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("landmap: reading weather header: %v", err)
	}
	col := make(map[string]int)
	for i, h := range header {
		col[h] = i
	}
	for _, want := range []string{"date", "rain", "snow", "tmin", "tmax"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("landmap: weather file has no %q column", want)
		}
	}

	var records []MetRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("landmap: reading weather line %d: %v", line, err)
		}
		date, err := time.Parse("2006-01-02", row[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("landmap: weather line %d: %v", line, err)
		}
		num := func(name string) (float64, error) {
			v, err := strconv.ParseFloat(row[col[name]], 64)
			if err != nil {
				return 0, fmt.Errorf("landmap: weather line %d, column %s: %v", line, name, err)
			}
			return v, nil
		}
		rec := MetRecord{Date: date}
		if rec.Rain, err = num("rain"); err != nil {
			return nil, err
		}
		if rec.Snow, err = num("snow"); err != nil {
			return nil, err
		}
		if rec.Tmin, err = num("tmin"); err != nil {
			return nil, err
		}
		if rec.Tmax, err = num("tmax"); err != nil {
			return nil, err
		}
		rec.Rain /= 1000 // [mm] to [m]
		rec.Snow /= 1000
		records = append(records, rec)
	}
	return records, nil
}

// ReadMetFile reads daily weather records from the named CSV file.
func ReadMetFile(path string) ([]MetRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("landmap: opening weather file: %v", err)
	}
	defer f.Close()
	return ReadMetCSV(f)
}
