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

package landmap

import (
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func checkState(t *testing.T) *State {
	t.Helper()
	model := Couple(
		&declOnly{vars: []Variable{
			{Name: "u", Kind: Prognostic, Dims: Column},
			{Name: "v", Kind: Auxiliary, Dims: Column},
		}},
		Nest("sub", &declOnly{vars: []Variable{{Name: "w", Kind: Auxiliary, Dims: Lateral}}}),
	)
	s, err := BuildState(model, NewColumn(3, 0.1, 1).Replicated(2), &Clock{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestScanReportsNaN checks that an injected non-finite value is
// reported with its namespace-qualified name and cell index.
func TestScanReportsNaN(t *testing.T) {
	s := checkState(t)
	sub, _ := s.Child("sub")
	sub.Aux("w").Data[1] = math.NaN()
	s.Tendency("u").Data[4] = math.Inf(1)

	logger, hook := logtest.NewNullLogger()
	c := &Check{NaN: true, Log: logger}
	err := c.Scan(s, "auxiliary")
	if err == nil {
		t.Fatal("scan missed the injected values")
	}
	if !strings.Contains(err.Error(), "2 non-finite") {
		t.Errorf("error %q does not count both values", err)
	}
	if !strings.Contains(err.Error(), "auxiliary") {
		t.Errorf("error %q does not name the phase", err)
	}

	var names []string
	for _, e := range hook.AllEntries() {
		names = append(names, e.Data["variable"].(string))
		if e.Level != logrus.ErrorLevel {
			t.Errorf("entry at level %v, want error", e.Level)
		}
	}
	joined := strings.Join(names, " ")
	if !strings.Contains(joined, "sub.w") {
		t.Errorf("log entries %q do not qualify the nested field", joined)
	}
	if !strings.Contains(joined, "u (tendency)") {
		t.Errorf("log entries %q do not mark the tendency field", joined)
	}
}

func TestScanClean(t *testing.T) {
	s := checkState(t)
	c := &Check{NaN: true}
	if err := c.Scan(s, "tendency"); err != nil {
		t.Errorf("clean state failed the scan: %v", err)
	}
}

// TestScanDisabled checks that a nil or disabled check never fails
// and never allocates.
func TestScanDisabled(t *testing.T) {
	s := checkState(t)
	s.Aux("v").Data[0] = math.NaN()

	var c *Check
	if err := c.Scan(s, "auxiliary"); err != nil {
		t.Errorf("nil check failed: %v", err)
	}
	off := &Check{}
	if err := off.Scan(s, "auxiliary"); err != nil {
		t.Errorf("disabled check failed: %v", err)
	}
	if n := testing.AllocsPerRun(10, func() { c.Scan(s, "x"); off.Scan(s, "x") }); n > 0 {
		t.Errorf("disabled scans allocate %g times per run", n)
	}
}

// TestScanReportCap checks that MaxReport limits log volume but not
// the count in the returned error.
func TestScanReportCap(t *testing.T) {
	s := checkState(t)
	v := s.Aux("v")
	for i := range v.Data {
		v.Data[i] = math.Inf(-1)
	}
	logger, hook := logtest.NewNullLogger()
	c := &Check{NaN: true, MaxReport: 2, Log: logger}
	err := c.Scan(s, "auxiliary")
	if err == nil {
		t.Fatal("scan missed the injected values")
	}
	if got := len(hook.AllEntries()); got != 2 {
		t.Errorf("%d log entries, want 2", got)
	}
	if !strings.Contains(err.Error(), "6 non-finite") {
		t.Errorf("error %q does not count all values", err)
	}
}
