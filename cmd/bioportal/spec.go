package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/bioportal"
	"github.com/kailas-cloud/bioportal/query"
)

func specFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "where",
			Aliases: []string{"w"},
			Usage:   "Condition field:OPERATOR[:value]; list values are comma separated",
		},
		&cli.BoolFlag{
			Name:  "or",
			Usage: "Combine conditions with OR instead of AND",
		},
		&cli.IntFlag{
			Name:  "from",
			Usage: "Offset of the first document",
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Number of documents to return",
		},
		&cli.StringSliceFlag{
			Name:  "sort",
			Usage: "Sort path[:DESC]",
		},
		&cli.StringSliceFlag{
			Name:  "fields",
			Usage: "Fields to return",
		},
	}
}

func serviceFlag(value ...string) *cli.StringSliceFlag {
	if len(value) == 0 {
		value = []string{string(bioportal.ServiceSpecimen)}
	}
	return &cli.StringSliceFlag{
		Name:    "service",
		Aliases: []string{"s"},
		Usage:   "NBA service (taxon, specimen, multimedia, geo)",
		Value:   cli.NewStringSlice(value...),
	}
}

func parseServices(c *cli.Context) ([]bioportal.Service, error) {
	var out []bioportal.Service
	for _, name := range splitList(c.StringSlice("service")) {
		s, err := bioportal.ParseService(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// splitList flattens comma separated flag values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// applySpecFlags copies the spec flags of c onto s.
func applySpecFlags(c *cli.Context, s *query.Spec) error {
	for _, w := range c.StringSlice("where") {
		cond, err := parseWhere(w)
		if err != nil {
			return err
		}
		if err := s.AddCondition(cond); err != nil {
			return err
		}
	}
	if c.Bool("or") {
		if err := s.SetLogicalOperator(query.Or); err != nil {
			return err
		}
	}
	if c.IsSet("from") {
		if err := s.SetFrom(c.Int("from")); err != nil {
			return err
		}
	}
	if c.IsSet("size") {
		if err := s.SetSize(c.Int("size")); err != nil {
			return err
		}
	}
	for _, raw := range c.StringSlice("sort") {
		path, order, _ := strings.Cut(raw, ":")
		o, err := query.ParseSortOrder(order)
		if err != nil {
			return err
		}
		if err := s.SortBy(path, o); err != nil {
			return err
		}
	}
	if fields := splitList(c.StringSlice("fields")); len(fields) > 0 {
		if err := s.SetFields(fields); err != nil {
			return err
		}
	}
	return nil
}

// applyGroupFlags copies the spec and aggregation flags of c onto g.
func applyGroupFlags(c *cli.Context, g *query.GroupSpec) error {
	if err := applySpecFlags(c, &g.Spec); err != nil {
		return err
	}
	if raw := c.String("group-sort"); raw != "" {
		gs, err := query.ParseGroupSort(raw)
		if err != nil {
			return err
		}
		if err := g.SetGroupSort(gs); err != nil {
			return err
		}
	}
	if c.IsSet("specimens-size") {
		if err := g.SetSpecimensSize(c.Int("specimens-size")); err != nil {
			return err
		}
	}
	g.SetNoTaxa(c.Bool("no-taxa"))
	return nil
}

// parseWhere parses field:OPERATOR[:value].
func parseWhere(raw string) (*query.Condition, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("condition %q: want field:OPERATOR[:value]", raw)
	}
	op, err := query.ParseOperator(parts[1])
	if err != nil {
		return nil, err
	}
	if len(parts) == 2 {
		return query.NewCondition(parts[0], op)
	}
	return query.NewCondition(parts[0], op, splitValue(op, parts[2])...)
}

func splitValue(op query.Operator, v string) []any {
	switch op {
	case query.In, query.NotIn, query.Between, query.NotBetween:
		items := strings.Split(v, ",")
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = strings.TrimSpace(it)
		}
		return out
	default:
		return []any{v}
	}
}
