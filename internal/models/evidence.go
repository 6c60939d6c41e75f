package models

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// GeoSignal is one code location observed to branch on a list of country codes.
type GeoSignal struct {
	File      string   `json:"file" validate:"required"`
	Line      int      `json:"line"`
	Countries []string `json:"countries"`
	Message   string   `json:"message,omitempty"`
}

// AgeCheckSignal is one code location where an age verification library was detected.
type AgeCheckSignal struct {
	File    string `json:"file" validate:"required"`
	Line    int    `json:"line"`
	Lib     string `json:"lib"`
	Method  string `json:"method,omitempty"`
	Message string `json:"message,omitempty"`
}

// DataResidencySignal is one code location pinning data to a storage region.
type DataResidencySignal struct {
	File    string `json:"file" validate:"required"`
	Line    int    `json:"line"`
	Region  string `json:"region"`
	Service string `json:"service,omitempty"`
	Message string `json:"message,omitempty"`
}

// FlagSignal is a feature flag reference found by the scanner.
type FlagSignal struct {
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// StaticSignals groups everything the static scanner collected for a feature.
type StaticSignals struct {
	GeoBranching     []GeoSignal           `json:"geo_branching"`
	AgeChecks        []AgeCheckSignal      `json:"age_checks"`
	DataResidency    []DataResidencySignal `json:"data_residency"`
	ReportingClients []string              `json:"reporting_clients"`
	RecoSystem       bool                  `json:"reco_system"`
	PFControls       bool                  `json:"pf_controls"`
	Flags            []FlagSignal          `json:"flags"`
	Tags             []string              `json:"tags"`
}

// Persona describes the simulated user a runtime probe ran as.
// Age is a pointer so "unknown age" survives JSON round trips as null.
type Persona struct {
	Country  string `json:"country"`
	Age      *int   `json:"age"`
	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
}

// FlagResolution is a feature flag value observed at runtime.
type FlagResolution struct {
	Name   string      `json:"name"`
	Value  interface{} `json:"value"`
	Source string      `json:"source,omitempty"`
}

// NetworkTrace is one outbound request observed during probing.
type NetworkTrace struct {
	Host       string `json:"host"`
	RegionHint string `json:"region_hint,omitempty"`
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
}

// RuntimeSignals groups observations from the runtime prober.
type RuntimeSignals struct {
	Persona         *Persona         `json:"persona,omitempty"`
	BlockedActions  []string         `json:"blocked_actions"`
	UIStates        []string         `json:"ui_states"`
	FlagResolutions []FlagResolution `json:"flag_resolutions"`
	Network         []NetworkTrace   `json:"network"`
	TraceURI        string           `json:"trace_uri,omitempty"`
}

// EvidenceMetadata carries provenance only; it is never evaluated by rules.
type EvidenceMetadata struct {
	Repo           string    `json:"repo,omitempty"`
	Commit         string    `json:"commit,omitempty"`
	Branch         string    `json:"branch,omitempty"`
	ScanTimestamp  time.Time `json:"scan_timestamp"`
	ScannerVersion string    `json:"scanner_version,omitempty"`
}

// EvidenceSignals holds the two optional signal sub-trees of a pack.
type EvidenceSignals struct {
	Static  *StaticSignals  `json:"static,omitempty"`
	Runtime *RuntimeSignals `json:"runtime,omitempty"`
}

// EvidencePack is the complete evidence document for one feature.
// FeatureID is the join key between evidence, rules result, and final record
// and must stay stable across a pipeline run.
type EvidencePack struct {
	FeatureID string           `json:"feature_id" validate:"required"`
	Signals   EvidenceSignals  `json:"signals"`
	Metadata  EvidenceMetadata `json:"metadata"`
}

var validate = validator.New()

// Validate checks the pack against its declared constraints.
func (p *EvidencePack) Validate() error {
	return validate.Struct(p)
}

// Static returns the static signal sub-tree, never nil.
func (p *EvidencePack) Static() *StaticSignals {
	if p.Signals.Static == nil {
		return &StaticSignals{}
	}
	return p.Signals.Static
}

// Runtime returns the runtime signal sub-tree, never nil.
func (p *EvidencePack) Runtime() *RuntimeSignals {
	if p.Signals.Runtime == nil {
		return &RuntimeSignals{}
	}
	return p.Signals.Runtime
}

// ToMap converts the pack to a generic map for rule evaluation.
func (p *EvidencePack) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
