/*
Copyright © 2025 the forestcarbon authors.
This file is part of forestcarbon.

forestcarbon is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

forestcarbon is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with forestcarbon.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// readNameList reads a list of names from a CSV file. If the first row
// contains a column named column, the names are read from that column and
// the first row is treated as a header; otherwise names are read from the
// first column of every row. Blank names are skipped.
func readNameList(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("gridstore: reading name list: %v", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	col := 0
	for i, h := range records[0] {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			col = i
			records = records[1:]
			break
		}
	}
	var o []string
	for _, rec := range records {
		if col >= len(rec) {
			continue
		}
		if n := strings.TrimSpace(rec[col]); n != "" {
			o = append(o, n)
		}
	}
	return o, nil
}
