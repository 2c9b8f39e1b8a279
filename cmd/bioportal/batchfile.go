package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/bioportal/query"
)

// batchEntry is one labelled query of a batch file:
//
//	larus:
//	  logical_operator: OR
//	  size: 10
//	  conditions:
//	    - field: identifications.defaultClassification.genus
//	      operator: EQUALS
//	      value: Larus
type batchEntry struct {
	LogicalOperator string           `yaml:"logical_operator"`
	From            *int             `yaml:"from"`
	Size            *int             `yaml:"size"`
	Sort            []batchSortField `yaml:"sort"`
	Fields          []string         `yaml:"fields"`
	ConstantScore   bool             `yaml:"constant_score"`
	Conditions      []batchCondition `yaml:"conditions"`
}

type batchSortField struct {
	Path  string `yaml:"path"`
	Order string `yaml:"order"`
}

type batchCondition struct {
	Field    string           `yaml:"field"`
	Operator string           `yaml:"operator"`
	Value    any              `yaml:"value"`
	Not      bool             `yaml:"not"`
	Boost    float64          `yaml:"boost"`
	And      []batchCondition `yaml:"and"`
	Or       []batchCondition `yaml:"or"`
}

func loadBatchFile(path string) (map[string]query.Specifier, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", path, err)
	}
	return parseBatch(data)
}

func parseBatch(data []byte) (map[string]query.Specifier, error) {
	var entries map[string]batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("batch file holds no queries")
	}

	specs := make(map[string]query.Specifier, len(entries))
	for label, e := range entries {
		s, err := e.spec()
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", label, err)
		}
		specs[label] = s
	}
	return specs, nil
}

func (e batchEntry) spec() (*query.Spec, error) {
	s := query.NewSpec().SetConstantScore(e.ConstantScore)
	for _, bc := range e.Conditions {
		c, err := bc.condition()
		if err != nil {
			return nil, err
		}
		if err := s.AddCondition(c); err != nil {
			return nil, err
		}
	}
	if e.LogicalOperator != "" {
		op, err := query.ParseLogicalOperator(e.LogicalOperator)
		if err != nil {
			return nil, err
		}
		if err := s.SetLogicalOperator(op); err != nil {
			return nil, err
		}
	}
	if e.From != nil {
		if err := s.SetFrom(*e.From); err != nil {
			return nil, err
		}
	}
	if e.Size != nil {
		if err := s.SetSize(*e.Size); err != nil {
			return nil, err
		}
	}
	for _, sf := range e.Sort {
		o, err := query.ParseSortOrder(sf.Order)
		if err != nil {
			return nil, err
		}
		if err := s.SortBy(sf.Path, o); err != nil {
			return nil, err
		}
	}
	if len(e.Fields) > 0 {
		if err := s.SetFields(e.Fields); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (bc batchCondition) condition() (*query.Condition, error) {
	var values []any
	switch v := bc.Value.(type) {
	case nil:
	case []any:
		values = v
	default:
		values = []any{v}
	}
	c, err := query.NewCondition(bc.Field, query.Operator(bc.Operator), values...)
	if err != nil {
		return nil, err
	}
	c.SetNegated(bc.Not)
	if bc.Boost != 0 {
		if err := c.SetBoost(bc.Boost); err != nil {
			return nil, err
		}
	}
	for _, sub := range bc.And {
		sc, err := sub.condition()
		if err != nil {
			return nil, err
		}
		if err := c.And(sc); err != nil {
			return nil, err
		}
	}
	for _, sub := range bc.Or {
		sc, err := sub.condition()
		if err != nil {
			return nil, err
		}
		if err := c.Or(sc); err != nil {
			return nil, err
		}
	}
	return c, nil
}
