package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bioportal"
	logpkg "github.com/kailas-cloud/bioportal/internal/logger"
	"github.com/kailas-cloud/bioportal/query"
)

func (a *cliApp) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "ping",
			Usage:  "Check whether the NBA is up",
			Action: a.pingCommand,
		},
		{
			Name:   "query",
			Usage:  "Run a query against one or more services",
			Action: a.queryCommand,
			Flags: append([]cli.Flag{
				serviceFlag(),
				&cli.BoolFlag{Name: "post", Usage: "Send the query spec as a JSON body"},
				&cli.BoolFlag{Name: "group", Usage: "Use groupByScientificName (specimen or taxon only)"},
				&cli.StringFlag{Name: "group-sort", Usage: "Bucket order with --group (e.g. COUNT_DESC, NAME_ASC)"},
				&cli.IntFlag{Name: "specimens-size", Usage: "Specimens per bucket with --group"},
				&cli.BoolFlag{Name: "no-taxa", Usage: "Omit taxa from buckets with --group"},
			}, specFlags()...),
		},
		{
			Name:   "count",
			Usage:  "Count documents, optionally restricted by conditions",
			Action: a.countCommand,
			Flags:  append([]cli.Flag{serviceFlag()}, specFlags()...),
		},
		{
			Name:      "find",
			Usage:     "Look documents up by id",
			ArgsUsage: "ID...",
			Action:    a.findCommand,
			Flags: []cli.Flag{
				serviceFlag(),
				&cli.BoolFlag{Name: "unit-id", Usage: "Treat the argument as a specimen unit id"},
			},
		},
		{
			Name:   "paths",
			Usage:  "List the document paths of a service",
			Action: a.pathsCommand,
			Flags: []cli.Flag{
				serviceFlag(),
				&cli.BoolFlag{Name: "sorted", Usage: "Sort paths alphabetically"},
			},
		},
		{
			Name:      "fields",
			Usage:     "Describe the fields of a service",
			ArgsUsage: "[FIELD...]",
			Action:    a.fieldsCommand,
			Flags:     []cli.Flag{serviceFlag()},
		},
		{
			Name:   "batch",
			Usage:  "Run a YAML file of labelled queries against one service",
			Action: a.batchCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "service",
					Aliases: []string{"s"},
					Usage:   "NBA service",
					Value:   string(bioportal.ServiceSpecimen),
				},
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"f"},
					Usage:    "Path to the batch file",
					Required: true,
				},
				&cli.BoolFlag{Name: "post", Usage: "Send the query specs as JSON bodies"},
			},
		},
		{
			Name:   "dwca",
			Usage:  "Download a Darwin Core Archive",
			Action: a.dwcaCommand,
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:    "service",
					Aliases: []string{"s"},
					Usage:   "NBA service (specimen or taxon)",
					Value:   string(bioportal.ServiceSpecimen),
				},
				&cli.StringFlag{Name: "set", Usage: "Predefined data set name"},
				&cli.BoolFlag{Name: "list", Usage: "List the predefined data sets"},
			}, specFlags()...),
		},
	}
}

func (a *cliApp) pingCommand(c *cli.Context) error {
	up, err := a.client.Ping(c.Context)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if !up {
		color.New(color.FgRed).Fprintln(a.errOut, "NBA is down")
		return errors.New("NBA is not running")
	}
	color.New(color.FgGreen).Fprintln(a.out, "NBA is up")
	return nil
}

func (a *cliApp) queryCommand(c *cli.Context) error {
	ctx := logpkg.With(c.Context, zap.String("command", "query"))
	services, err := parseServices(c)
	if err != nil {
		return err
	}
	if err := a.client.Select(services...); err != nil {
		return err
	}
	a.client.UsePost(c.Bool("post"))

	var spec query.Specifier
	if c.Bool("group") {
		g := query.NewGroupSpec()
		if err := applyGroupFlags(c, g); err != nil {
			return err
		}
		spec = g
	} else {
		s := query.NewSpec()
		if err := applySpecFlags(c, s); err != nil {
			return err
		}
		spec = s
	}
	if err := a.client.AttachSpec(spec); err != nil {
		return err
	}

	logpkg.FromContext(ctx).Debug("dispatching", zap.Int("services", len(services)))
	var res *bioportal.Result
	if c.Bool("group") {
		res, err = a.client.GroupByScientificName(ctx)
	} else {
		res, err = a.client.Query(ctx)
	}
	if err != nil {
		return err
	}
	return a.printResult(res)
}

func (a *cliApp) countCommand(c *cli.Context) error {
	services, err := parseServices(c)
	if err != nil {
		return err
	}
	if err := a.client.Select(services...); err != nil {
		return err
	}
	s := query.NewSpec()
	if err := applySpecFlags(c, s); err != nil {
		return err
	}
	if !s.IsEmpty() {
		if err := a.client.AttachSpec(s); err != nil {
			return err
		}
	}
	res, err := a.client.Count(c.Context)
	if err != nil {
		return err
	}
	return a.printResult(res)
}

func (a *cliApp) findCommand(c *cli.Context) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return errors.New("at least one id is required")
	}
	services, err := parseServices(c)
	if err != nil {
		return err
	}
	if err := a.client.Select(services...); err != nil {
		return err
	}

	if c.Bool("unit-id") {
		if len(ids) > 1 {
			return errors.New("--unit-id takes exactly one id")
		}
		item, err := a.client.FindByUnitID(c.Context, ids[0])
		if errors.Is(err, bioportal.ErrNotFound) {
			color.New(color.FgYellow).Fprintf(a.errOut, "no specimen with unit id %q\n", ids[0])
			return err
		}
		if err != nil {
			return err
		}
		return a.printJSON(item)
	}

	res, err := a.client.Find(c.Context, ids...)
	if err != nil {
		return err
	}
	return a.printResult(res)
}

func (a *cliApp) pathsCommand(c *cli.Context) error {
	services, err := parseServices(c)
	if err != nil {
		return err
	}
	if err := a.client.Select(services...); err != nil {
		return err
	}
	res, err := a.client.Paths(c.Context, c.Bool("sorted"))
	if err != nil {
		return err
	}
	return a.printResult(res)
}

func (a *cliApp) fieldsCommand(c *cli.Context) error {
	services, err := parseServices(c)
	if err != nil {
		return err
	}
	if err := a.client.Select(services...); err != nil {
		return err
	}
	res, err := a.client.FieldInfo(c.Context, c.Args().Slice()...)
	if err != nil {
		return err
	}
	return a.printResult(res)
}

func (a *cliApp) batchCommand(c *cli.Context) error {
	svc, err := bioportal.ParseService(c.String("service"))
	if err != nil {
		return err
	}
	specs, err := loadBatchFile(c.String("file"))
	if err != nil {
		return err
	}
	if err := a.client.Select(svc); err != nil {
		return err
	}
	a.client.UsePost(c.Bool("post"))

	res, err := a.client.BatchQuery(c.Context, specs)
	if err != nil {
		return err
	}
	return a.printResult(res)
}

func (a *cliApp) dwcaCommand(c *cli.Context) error {
	svc, err := bioportal.ParseService(c.String("service"))
	if err != nil {
		return err
	}
	if err := a.client.Select(svc); err != nil {
		return err
	}

	if c.Bool("list") {
		names, err := a.client.DwCADataSetNames(c.Context)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(a.out, n)
		}
		return nil
	}

	var path string
	if set := c.String("set"); set != "" {
		path, err = a.client.DwCADataSet(c.Context, set)
	} else {
		s := query.NewSpec()
		if err := applySpecFlags(c, s); err != nil {
			return err
		}
		if err := a.client.AttachSpec(s); err != nil {
			return err
		}
		path, err = a.client.DwCAQuery(c.Context)
	}
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.errOut, "archive written to ")
	fmt.Fprintln(a.out, path)
	return nil
}
