// Package timeseries provides the observation series consumed by the ARMA
// estimators.
//
// # Creating a Series
//
// Create a time series from a slice:
//
//	values := []float64{0.3, -1.2, 0.8, 2.5, -0.4}
//	series := timeseries.New(values)
//
// New assigns hourly timestamps starting at the Unix epoch, so two series
// built from the same values are identical.
//
// # Loading and Saving CSV
//
//	series, err := timeseries.LoadCSV("data.csv", nil) // "ds,y" columns
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "returns"
//	series, err = timeseries.LoadCSVFromReader(reader, opts)
//
//	err = timeseries.SaveCSV(series, "out.csv")
//
// # Robust Summaries
//
// The estimators start from robust location and scale estimates:
//
//	median := series.Median()
//	mad := series.MAD() // median absolute deviation, not normalized
//
// # Slicing
//
//	subset := series.Slice(10, 50)
//	last := series.Tail(100)
//	copy := series.Copy()
package timeseries
