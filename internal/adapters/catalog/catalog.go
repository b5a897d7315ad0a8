// Package catalog reads and writes pump catalogs as YAML documents.
//
// A catalog file has a single top-level key:
//
//	pumps:
//	  - name: "BC-21 R 1/2 (3 CV)"
//	    rated_power_cv: 3
//	    ...
//	    curves:
//	      max_flow: 42
//	      head: {shutoff_m: 32, ref_head_m: 0, ref_flow: 45, exponent: 1.8}
//	    policy:
//	      allow_negative_head: false
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okian/pumpcurve/internal/domain/pump"
	"gopkg.in/yaml.v3"
)

// ErrDecode is returned for documents that are not a valid catalog.
var ErrDecode = errors.New("decode catalog")

// document is the on-disk layout.
type document struct {
	Pumps []pump.Spec `yaml:"pumps"`
}

// LoadFile reads and validates the catalog at path.
func LoadFile(path string) ([]pump.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	specs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Decode reads a catalog document from r. Unknown keys are rejected so a
// misspelt coefficient does not silently default to zero.
func Decode(r io.Reader) ([]pump.Spec, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrDecode)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(doc.Pumps) == 0 {
		return nil, fmt.Errorf("%w: no pumps", ErrDecode)
	}
	if err := pump.ValidateCatalog(doc.Pumps); err != nil {
		return nil, err
	}
	return doc.Pumps, nil
}

// Encode writes specs to w in the layout Decode reads.
func Encode(w io.Writer, specs []pump.Spec) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Pumps: specs}); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
