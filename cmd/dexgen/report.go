package main

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR encoding uses canonical mode for deterministic report bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dexgen: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// BuildReport is the machine-readable sidecar describing one build.
type BuildReport struct {
	Output    string         `cbor:"output"`
	ImageSize int            `cbor:"image_size"`
	Methods   []MethodReport `cbor:"methods"`
}

// MethodReport summarizes one generated method.
type MethodReport struct {
	Class     string `cbor:"class"`
	Name      string `cbor:"name"`
	Shorty    string `cbor:"shorty"`
	Registers int    `cbor:"registers"`
	Outs      int    `cbor:"outs"`
	CodeUnits int    `cbor:"code_units"`
}

// NewBuildReport derives a report from a finished build.
func NewBuildReport(cfg *Config, result *BuildResult) *BuildReport {
	r := &BuildReport{
		Output:    cfg.Output,
		ImageSize: len(result.Image),
	}
	for _, m := range result.Methods {
		r.Methods = append(r.Methods, MethodReport{
			Class:     m.Class,
			Name:      m.Name,
			Shorty:    m.Shorty,
			Registers: m.Registers,
			Outs:      m.Outs,
			CodeUnits: m.CodeUnits,
		})
	}
	return r
}

// MarshalReport serializes a report to CBOR bytes.
func MarshalReport(r *BuildReport) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalReport deserializes a report from CBOR bytes.
func UnmarshalReport(data []byte) (*BuildReport, error) {
	var r BuildReport
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("dexgen: unmarshal report: %w", err)
	}
	return &r, nil
}
