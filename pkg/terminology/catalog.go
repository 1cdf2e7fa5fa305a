package terminology

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metric describes how one lab/vital column of the cycle series is displayed.
// Better records the clinically favourable direction of travel for trend
// arrows; it is empty for metrics without one.
type Metric struct {
	Display  string `yaml:"display" json:"display"`
	Unit     string `yaml:"unit" json:"unit"`
	LOINC    string `yaml:"loinc" json:"loinc"`
	Better   string `yaml:"better" json:"better"`
	Decimals int    `yaml:"decimals" json:"decimals"`
}

type Catalog struct {
	Metrics map[string]Metric `yaml:"metrics" json:"metrics"`
}

func Load(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Metrics) == 0 {
		return Catalog{}, fmt.Errorf("metric catalog empty")
	}
	return cat, nil
}

func (c Catalog) Lookup(key string) (Metric, bool) {
	if c.Metrics == nil {
		return Metric{}, false
	}
	metric, ok := c.Metrics[strings.ToLower(key)]
	if ok {
		return metric, true
	}
	for k, v := range c.Metrics {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return Metric{}, false
}

// DefaultCatalog covers the CKD monitoring panel emitted by the simulation
// backend. A deployment can override it with METRIC_CATALOG_PATH.
func DefaultCatalog() Catalog {
	return Catalog{Metrics: map[string]Metric{
		"egfr": {
			Display:  "eGFR",
			Unit:     "mL/min/1.73m²",
			LOINC:    "62238-1",
			Better:   "higher",
			Decimals: 1,
		},
		"uacr": {
			Display:  "uACR",
			Unit:     "mg/g",
			LOINC:    "9318-7",
			Better:   "lower",
			Decimals: 1,
		},
		"creatinine": {
			Display:  "Serum Creatinine",
			Unit:     "mg/dL",
			LOINC:    "2160-0",
			Better:   "lower",
			Decimals: 2,
		},
		"potassium": {
			Display:  "Potassium",
			Unit:     "mmol/L",
			LOINC:    "2823-3",
			Better:   "lower",
			Decimals: 1,
		},
		"hemoglobin": {
			Display:  "Hemoglobin",
			Unit:     "g/dL",
			LOINC:    "718-7",
			Better:   "higher",
			Decimals: 1,
		},
		"phosphorus": {
			Display:  "Phosphorus",
			Unit:     "mg/dL",
			LOINC:    "2777-1",
			Better:   "lower",
			Decimals: 1,
		},
		"bicarbonate": {
			Display:  "Bicarbonate",
			Unit:     "mmol/L",
			LOINC:    "1963-8",
			Better:   "higher",
			Decimals: 0,
		},
		"albumin": {
			Display:  "Serum Albumin",
			Unit:     "g/dL",
			LOINC:    "1751-7",
			Better:   "higher",
			Decimals: 1,
		},
		"systolic_bp": {
			Display:  "Systolic BP",
			Unit:     "mmHg",
			LOINC:    "8480-6",
			Better:   "lower",
			Decimals: 0,
		},
		"diastolic_bp": {
			Display:  "Diastolic BP",
			Unit:     "mmHg",
			LOINC:    "8462-4",
			Better:   "lower",
			Decimals: 0,
		},
		"weight_kg": {
			Display:  "Weight",
			Unit:     "kg",
			LOINC:    "29463-7",
			Decimals: 1,
		},
	}}
}
