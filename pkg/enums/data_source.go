package enums

import "fmt"

// DataSource tags where a read was served from.
type DataSource string

const (
	DataSourceRemote DataSource = "REMOTE"
	DataSourceCache  DataSource = "CACHE"
)

var validDataSources = []DataSource{
	DataSourceRemote,
	DataSourceCache,
}

// String implements fmt.Stringer.
func (d DataSource) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DataSource) IsValid() bool {
	for _, candidate := range validDataSources {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDataSource converts raw input into a DataSource.
func ParseDataSource(value string) (DataSource, error) {
	for _, candidate := range validDataSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid data source %q", value)
}
