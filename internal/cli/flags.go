package cli

import (
	"time"

	"itd/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	ConfigFile       string
	LogLevel         string
	Processors       int
	Filter           string
	FailFast         bool
	OnlyFailed       bool
	RerunFailures    bool
	OpenFailures     bool
	ShowDescriptions bool
	ProvisionDB      bool
	NoFresh          bool
	Timeout          time.Duration
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors:       f.Processors,
		Filter:           f.Filter,
		FailFast:         f.FailFast,
		OnlyFailed:       f.OnlyFailed,
		RerunFailures:    f.RerunFailures,
		OpenFailures:     f.OpenFailures,
		ShowDescriptions: f.ShowDescriptions,
		ProvisionDB:      f.ProvisionDB,
		NoFresh:          f.NoFresh,
		Timeout:          f.Timeout,
	}
}
