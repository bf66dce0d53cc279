package equipment

// Summary is the derived, read-only aggregate of a dataset's records.
//
// The JSON field names are a compatibility contract with chart, table and
// report consumers; renaming any of them is a breaking change. Numeric
// aggregates are nil (JSON null) when TotalCount is zero, never NaN.
type Summary struct {
	TotalCount       int            `json:"total_count"`
	AvgFlowrate      *float64       `json:"avg_flowrate"`
	AvgPressure      *float64       `json:"avg_pressure"`
	AvgTemperature   *float64       `json:"avg_temperature"`
	MinFlowrate      *float64       `json:"min_flowrate"`
	MaxFlowrate      *float64       `json:"max_flowrate"`
	MinPressure      *float64       `json:"min_pressure"`
	MaxPressure      *float64       `json:"max_pressure"`
	MinTemperature   *float64       `json:"min_temperature"`
	MaxTemperature   *float64       `json:"max_temperature"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// Summarize computes summary statistics over records in a single pass.
//
// It is a total function: zero records yield TotalCount 0 with nil numeric
// aggregates and an empty type distribution. Type grouping is case-sensitive
// exact match. Averages use plain float64 summation.
func Summarize(records []Record) Summary {
	summary := Summary{
		TotalCount:       len(records),
		TypeDistribution: make(map[string]int, 8),
	}
	if len(records) == 0 {
		return summary
	}

	first := records[0]
	minFlow, maxFlow, sumFlow := first.Flowrate, first.Flowrate, 0.0
	minPres, maxPres, sumPres := first.Pressure, first.Pressure, 0.0
	minTemp, maxTemp, sumTemp := first.Temperature, first.Temperature, 0.0

	for _, rec := range records {
		if rec.Flowrate < minFlow {
			minFlow = rec.Flowrate
		}
		if rec.Flowrate > maxFlow {
			maxFlow = rec.Flowrate
		}
		sumFlow += rec.Flowrate

		if rec.Pressure < minPres {
			minPres = rec.Pressure
		}
		if rec.Pressure > maxPres {
			maxPres = rec.Pressure
		}
		sumPres += rec.Pressure

		if rec.Temperature < minTemp {
			minTemp = rec.Temperature
		}
		if rec.Temperature > maxTemp {
			maxTemp = rec.Temperature
		}
		sumTemp += rec.Temperature

		summary.TypeDistribution[rec.Type]++
	}

	count := float64(len(records))
	summary.MinFlowrate = ptr(minFlow)
	summary.MaxFlowrate = ptr(maxFlow)
	summary.AvgFlowrate = ptr(sumFlow / count)
	summary.MinPressure = ptr(minPres)
	summary.MaxPressure = ptr(maxPres)
	summary.AvgPressure = ptr(sumPres / count)
	summary.MinTemperature = ptr(minTemp)
	summary.MaxTemperature = ptr(maxTemp)
	summary.AvgTemperature = ptr(sumTemp / count)
	return summary
}

// Clone returns a deep copy of the summary.
func (s Summary) Clone() Summary {
	out := s
	out.AvgFlowrate = clonePtr(s.AvgFlowrate)
	out.AvgPressure = clonePtr(s.AvgPressure)
	out.AvgTemperature = clonePtr(s.AvgTemperature)
	out.MinFlowrate = clonePtr(s.MinFlowrate)
	out.MaxFlowrate = clonePtr(s.MaxFlowrate)
	out.MinPressure = clonePtr(s.MinPressure)
	out.MaxPressure = clonePtr(s.MaxPressure)
	out.MinTemperature = clonePtr(s.MinTemperature)
	out.MaxTemperature = clonePtr(s.MaxTemperature)
	if s.TypeDistribution != nil {
		out.TypeDistribution = make(map[string]int, len(s.TypeDistribution))
		for k, v := range s.TypeDistribution {
			out.TypeDistribution[k] = v
		}
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
