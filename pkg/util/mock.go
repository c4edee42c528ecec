package util

import "github.com/influxdata/influxdb-client-go/api/write"

// MockWriteAPI is the metrics sink used when no InfluxDB endpoint is
// configured and in tests. Every write is discarded.
type MockWriteAPI struct{}

// WriteRecord discards a line protocol record.
func (m *MockWriteAPI) WriteRecord(line string) {}

// WritePoint discards a point.
func (m *MockWriteAPI) WritePoint(point *write.Point) {}

// Flush is a no-op; nothing is ever buffered.
func (m *MockWriteAPI) Flush() {}

// Close is a no-op.
func (m *MockWriteAPI) Close() {}

// Errors returns nil; discarded writes cannot fail.
func (m *MockWriteAPI) Errors() <-chan error { return nil }
