package equipment

import (
	"math"
	"reflect"
	"testing"
)

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalCount != 0 {
		t.Fatalf("expected total 0, got %d", summary.TotalCount)
	}
	for name, agg := range map[string]*float64{
		"avg_flowrate":    summary.AvgFlowrate,
		"avg_pressure":    summary.AvgPressure,
		"avg_temperature": summary.AvgTemperature,
		"min_flowrate":    summary.MinFlowrate,
		"max_flowrate":    summary.MaxFlowrate,
		"min_pressure":    summary.MinPressure,
		"max_pressure":    summary.MaxPressure,
		"min_temperature": summary.MinTemperature,
		"max_temperature": summary.MaxTemperature,
	} {
		if agg != nil {
			t.Fatalf("expected %s nil for empty input, got %v", name, *agg)
		}
	}
	if len(summary.TypeDistribution) != 0 {
		t.Fatalf("expected empty type distribution, got %v", summary.TypeDistribution)
	}
}

func TestSummarizeTwoRecords(t *testing.T) {
	records := []Record{
		{Name: "R1", Type: "Reactor", Flowrate: 150.5, Pressure: 25.3, Temperature: 220.0},
		{Name: "HX1", Type: "Heat Exchanger", Flowrate: 200.0, Pressure: 15.8, Temperature: 180.5},
	}
	summary := Summarize(records)

	if summary.TotalCount != 2 {
		t.Fatalf("expected total 2, got %d", summary.TotalCount)
	}
	if *summary.MinFlowrate != 150.5 || *summary.MaxFlowrate != 200.0 {
		t.Fatalf("flowrate min/max wrong: %v/%v", *summary.MinFlowrate, *summary.MaxFlowrate)
	}
	if *summary.AvgFlowrate != 175.25 {
		t.Fatalf("expected avg flowrate 175.25, got %v", *summary.AvgFlowrate)
	}
	want := map[string]int{"Reactor": 1, "Heat Exchanger": 1}
	if !reflect.DeepEqual(summary.TypeDistribution, want) {
		t.Fatalf("type distribution = %v, want %v", summary.TypeDistribution, want)
	}
}

func TestSummarizeInvariants(t *testing.T) {
	records := []Record{
		{Type: "Pump", Flowrate: 10, Pressure: 3, Temperature: -40},
		{Type: "pump", Flowrate: 90, Pressure: 1, Temperature: 15},
		{Type: "Pump", Flowrate: 55, Pressure: 2.5, Temperature: 99.9},
		{Type: "Valve", Flowrate: 42, Pressure: 8, Temperature: 0},
	}
	summary := Summarize(records)

	if summary.TotalCount != len(records) {
		t.Fatalf("expected total %d, got %d", len(records), summary.TotalCount)
	}
	checkOrdered := func(name string, min, avg, max *float64) {
		t.Helper()
		if *min > *avg || *avg > *max {
			t.Fatalf("%s: expected min <= avg <= max, got %v <= %v <= %v", name, *min, *avg, *max)
		}
	}
	checkOrdered("flowrate", summary.MinFlowrate, summary.AvgFlowrate, summary.MaxFlowrate)
	checkOrdered("pressure", summary.MinPressure, summary.AvgPressure, summary.MaxPressure)
	checkOrdered("temperature", summary.MinTemperature, summary.AvgTemperature, summary.MaxTemperature)

	total := 0
	for _, count := range summary.TypeDistribution {
		total += count
	}
	if total != summary.TotalCount {
		t.Fatalf("type distribution counts sum to %d, want %d", total, summary.TotalCount)
	}

	// Case-sensitive grouping keeps Pump and pump distinct.
	if summary.TypeDistribution["Pump"] != 2 || summary.TypeDistribution["pump"] != 1 {
		t.Fatalf("expected case-sensitive grouping, got %v", summary.TypeDistribution)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	records := []Record{
		{Type: "Reactor", Flowrate: 1.5, Pressure: 2.5, Temperature: 3.5},
		{Type: "Reactor", Flowrate: 4.5, Pressure: 5.5, Temperature: 6.5},
		{Type: "Column", Flowrate: 7.5, Pressure: 8.5, Temperature: 9.5},
	}
	first := Summarize(records)
	second := Summarize(records)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical summaries, got %+v vs %+v", first, second)
	}
	if math.IsNaN(*first.AvgFlowrate) {
		t.Fatal("average must never be NaN")
	}
}

func TestDatasetClone(t *testing.T) {
	ds := &Dataset{
		ID:           NewDatasetID(),
		Filename:     "plant.csv",
		TotalRecords: 1,
		Summary:      Summarize([]Record{{Type: "Pump", Flowrate: 1, Pressure: 2, Temperature: 3}}),
		Records:      []Record{{Name: "P1", Type: "Pump", Flowrate: 1, Pressure: 2, Temperature: 3}},
	}
	clone := ds.Clone()
	clone.Records[0].Name = "changed"
	clone.Summary.TypeDistribution["Pump"] = 99
	*clone.Summary.AvgFlowrate = 42

	if ds.Records[0].Name != "P1" {
		t.Fatal("clone shares records slice")
	}
	if ds.Summary.TypeDistribution["Pump"] != 1 {
		t.Fatal("clone shares type distribution map")
	}
	if *ds.Summary.AvgFlowrate != 1 {
		t.Fatal("clone shares summary pointers")
	}
}
